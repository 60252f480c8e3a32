package schemas

// Payload shapes for the AUT's JSON APIs. Responses deliberately include only
// the fields the assertions consume; forbidden-field checks run against the
// raw decoded body, not these structs.

// RegisterRequest is the body for POST {register}.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// RegisterResponse is the 201 body for a successful registration.
type RegisterResponse struct {
	UserID        int64  `json:"userId"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	AccountStatus string `json:"accountStatus"`
}

// LoginRequest is the body for POST {login}.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the 200 body for a successful credential exchange.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

// ProfileResponse is the body for GET {profile} with a bearer token.
type ProfileResponse struct {
	UserID        int64  `json:"userId"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	AccountStatus string `json:"accountStatus"`
}

// Product is one entry of the product search result set.
type Product struct {
	ProductID    int64   `json:"productId"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Availability string  `json:"availability"`
}

// SearchResponse is the body for GET {products_search}. An empty match is
// {"products": []}, never an error.
type SearchResponse struct {
	Products []Product `json:"products"`
}

// CartAddRequest is the body for POST {cart}/items.
type CartAddRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CartAddResponse is the 201 body for a successful cart insert.
type CartAddResponse struct {
	CartID    int64 `json:"cartId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// APIError is the error envelope the AUT uses for 4xx responses. Some
// endpoints populate "error", others "message"; Text() collapses the two.
type APIError struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns whichever of the two error fields is populated.
func (e APIError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
