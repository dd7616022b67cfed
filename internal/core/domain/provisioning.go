package domain

// ProvisioningRequest carries everything needed to create a login identity
// and its associated member profile in one flow.
type ProvisioningRequest struct {
	FullName string
	Email    string
	Password string
	Document string
	Phone    string
	Role     Role
}

// ProvisioningResult is the single outcome of a provisioning flow. When the
// identity provider requires an out-of-band confirmation before the account
// becomes usable, RequiresConfirmation is set; the profile row exists either
// way.
type ProvisioningResult struct {
	UserID               string
	RequiresConfirmation bool
}
