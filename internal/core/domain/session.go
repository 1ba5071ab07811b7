package domain

// Session is the authenticated identity plus its bearer credential.
// Invariant: Token and Identity are both set or both unset; a
// half-authenticated session is never observable.
type Session struct {
	Token    string `json:"access_token"`
	Identity *User  `json:"user"`
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.Identity != nil
}

// TokenGrant is the credential-exchange response from POST /auth/login.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
