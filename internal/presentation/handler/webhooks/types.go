package webhooks

import "strings"

type webhookResponse struct {
	Received bool `json:"received"`
}

type clerkEvent struct {
	Type string        `json:"type"`
	Data clerkUserData `json:"data"`
}

type clerkUserData struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
}

func (d *clerkUserData) primaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

// displayName prefers the provider username, then the real name, then the
// email local part.
func (d *clerkUserData) displayName() string {
	if d.Username != "" {
		return d.Username
	}

	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name != "" {
		return name
	}

	email := d.primaryEmail()
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return ""
}
