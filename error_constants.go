package sitetheory

const (
	ErrorCodeConfiguration      = "config.invalid"
	ErrorCodeDependencyResolve  = "dependency.unresolved"
	ErrorCodeProvisioningFailed = "provisioning.failed"
)

const (
	errorMessageInvalidConfiguration = "invalid configuration"
	errorMessageUnresolvedReference  = "unresolved reference"
	errorMessageProvisioningFailed   = "provisioning failed"
)
