package models

import "time"

// Credential is a stored site login owned by one user (table passwords).
type Credential struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Login       string    `json:"login"`
	Password    string    `json:"password"`
	SiteName    string    `json:"site_name"`
	Description *string   `json:"description"`
	URL         *string   `json:"url"`
	IsLogged    int       `json:"is_logged"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CredentialView is returned by create/list/update; it omits the password.
type CredentialView struct {
	ID          int     `json:"id"`
	Login       string  `json:"login"`
	SiteName    string  `json:"site_name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// CredentialSecretView is returned by search and includes the password.
type CredentialSecretView struct {
	ID          int     `json:"id"`
	Login       string  `json:"login"`
	Password    string  `json:"password"`
	SiteName    string  `json:"site_name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// CredentialPatchView is the response of a partial update.
type CredentialPatchView struct {
	ID       int    `json:"id"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (c *Credential) View() CredentialView {
	return CredentialView{ID: c.ID, Login: c.Login, SiteName: c.SiteName, Description: c.Description, URL: c.URL}
}

func (c *Credential) SecretView() CredentialSecretView {
	return CredentialSecretView{ID: c.ID, Login: c.Login, Password: c.Password, SiteName: c.SiteName, Description: c.Description, URL: c.URL}
}

func (c *Credential) PatchView() CredentialPatchView {
	return CredentialPatchView{ID: c.ID, Login: c.Login, Password: c.Password}
}

type CredentialInput struct {
	Login       string  `json:"login"`
	Password    string  `json:"password"`
	SiteName    string  `json:"site_name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

// CredentialPatch is a partial update; nil fields stay unchanged.
type CredentialPatch struct {
	Login       *string `json:"login"`
	Password    *string `json:"password"`
	SiteName    *string `json:"site_name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}
