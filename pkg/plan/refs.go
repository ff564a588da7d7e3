package plan

import "strings"

// Pseudo parameters understood by the provisioning engine.
const (
	PseudoRegion    = "AWS::Region"
	PseudoAccountID = "AWS::AccountId"
	PseudoPartition = "AWS::Partition"
	PseudoURLSuffix = "AWS::URLSuffix"
)

// Ref returns a deferred reference to a resource or parameter, in Fn::Sub syntax.
func Ref(id string) string {
	return "${" + id + "}"
}

// GetAtt returns a deferred reference to an attribute of a resource, in Fn::Sub syntax.
func GetAtt(id, attr string) string {
	return "${" + id + "." + attr + "}"
}

// Lookup returns a deferred reference to an external resource the engine resolves by name.
func Lookup(kind, name string) string {
	return "${Lookup:" + kind + ":" + name + "}"
}

// IsDeferred reports whether value contains a reference resolved by the provisioning engine.
func IsDeferred(value string) bool {
	return len(References(value)) > 0
}

// literalMarker follows "${" in text that must stay literal; Fn::Sub renders "${!x}" as "${x}".
const literalMarker = "${!"

// Escape marks every "${" in a literal value (file content, user settings) so it is never
// read as a reference. CDK tokens ("${Token[...]}") are left intact so they still resolve
// at synthesis.
func Escape(value string) string {
	if !strings.Contains(value, "${") {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if strings.HasPrefix(value[i:], "${") && !strings.HasPrefix(value[i:], cdkTokenPrefix) {
			b.WriteString(literalMarker)
			i++
			continue
		}
		b.WriteByte(value[i])
	}
	return b.String()
}

// Unescape reverses Escape for output that is not passed through Fn::Sub.
func Unescape(value string) string {
	return strings.ReplaceAll(value, literalMarker, "${")
}

// Param returns a deferred reference to a deployment parameter.
func Param(name string) string {
	return Ref(name)
}
