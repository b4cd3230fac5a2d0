package model

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const passwordSpecials = "@$!%*?&"

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
	phonePattern    = regexp.MustCompile(`^[0-9 +()-]{0,32}$`)
)

// ValidationErrors maps a request field to the reason it was rejected.
type ValidationErrors map[string]string

func (v ValidationErrors) add(field string, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

func (v ValidationErrors) orNil() map[string]string {
	if len(v) == 0 {
		return nil
	}
	return v
}

func ValidateUsername(username string) string {
	n := utf8.RuneCountInString(username)
	switch {
	case n < 3 || n > 50:
		return "username must be between 3 and 50 characters"
	case !usernamePattern.MatchString(username):
		return "username contains invalid characters"
	}
	return ""
}

func ValidateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "email is required"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "email is invalid"
	}
	return ""
}

// ValidatePassword requires 6-20 characters with upper and lower case letters, a digit
// and one of @$!%*?&.
func ValidatePassword(password string) string {
	n := len(password)
	if n < 6 || n > 20 {
		return "password must be between 6 and 20 characters"
	}
	if !passwordCharset.MatchString(password) {
		return "password contains invalid characters"
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return "password must contain upper and lower case letters, a digit and a special character"
	}
	return ""
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

func (r RegisterRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if msg := ValidateUsername(r.Username); msg != "" {
		errs.add("username", msg)
	}
	if msg := ValidateEmail(r.Email); msg != "" {
		errs.add("email", msg)
	}
	if msg := ValidatePassword(r.Password); msg != "" {
		errs.add("password", msg)
	}
	if utf8.RuneCountInString(r.FullName) > 100 {
		errs.add("full_name", "full name must be at most 100 characters")
	}
	return errs.orNil()
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.Username) == "" {
		errs.add("username", "username is required")
	}
	if r.Password == "" {
		errs.add("password", "password is required")
	}
	return errs.orNil()
}

type VerifyEmailRequest struct {
	Code string `json:"code"`
}

func (r VerifyEmailRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.Code) == "" {
		errs.add("code", "code is required")
	}
	return errs.orNil()
}

type EmailRequest struct {
	Email string `json:"email"`
}

func (r EmailRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if msg := ValidateEmail(strings.TrimSpace(r.Email)); msg != "" {
		errs.add("email", msg)
	}
	return errs.orNil()
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r ResetPasswordRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.Token) == "" {
		errs.add("token", "token is required")
	}
	if msg := ValidatePassword(r.NewPassword); msg != "" {
		errs.add("new_password", msg)
	}
	return errs.orNil()
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

func (r GoogleLoginRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.IDToken) == "" {
		errs.add("id_token", "id_token is required")
	}
	return errs.orNil()
}

type IntrospectRequest struct {
	Token string `json:"token"`
}

func (r IntrospectRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.Token) == "" {
		errs.add("token", "token is required")
	}
	return errs.orNil()
}

type CreateSharedLinkRequest struct {
	CollectionID string  `json:"collection_id"`
	Password     *string `json:"password,omitempty"`
}

func (r CreateSharedLinkRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.CollectionID) == "" {
		errs.add("collection_id", "collection_id is required")
	}
	if r.Password != nil && len(*r.Password) > 72 {
		errs.add("password", "password must be at most 72 bytes")
	}
	return errs.orNil()
}

type AccessSharedLinkRequest struct {
	PublicID string  `json:"public_id"`
	Password *string `json:"password,omitempty"`
}

func (r AccessSharedLinkRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.PublicID) == "" {
		errs.add("public_id", "public_id is required")
	}
	return errs.orNil()
}

type UpdateSharedLinkPasswordRequest struct {
	Password *string `json:"password"`
}

func (r UpdateSharedLinkPasswordRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if r.Password != nil && len(*r.Password) > 72 {
		errs.add("password", "password must be at most 72 bytes")
	}
	return errs.orNil()
}

type CollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r CollectionRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		errs.add("name", "name is required")
	} else if utf8.RuneCountInString(name) > 100 {
		errs.add("name", "name must be at most 100 characters")
	}
	if utf8.RuneCountInString(r.Description) > 1000 {
		errs.add("description", "description must be at most 1000 characters")
	}
	return errs.orNil()
}

type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func (r UploadURLRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.Filename) == "" {
		errs.add("filename", "filename is required")
	} else if len(r.Filename) > 255 {
		errs.add("filename", "filename must be at most 255 characters")
	}
	if strings.TrimSpace(r.ContentType) == "" {
		errs.add("content_type", "content_type is required")
	}
	if r.Size <= 0 {
		errs.add("size", "size must be positive")
	}
	return errs.orNil()
}

type CompleteUploadRequest struct {
	StorageKey   string   `json:"storage_key"`
	Filename     string   `json:"filename"`
	ContentType  string   `json:"content_type"`
	Size         int64    `json:"size"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

func (r CompleteUploadRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.StorageKey) == "" {
		errs.add("storage_key", "storage_key is required")
	}
	if strings.TrimSpace(r.Filename) == "" {
		errs.add("filename", "filename is required")
	}
	if strings.TrimSpace(r.ContentType) == "" {
		errs.add("content_type", "content_type is required")
	}
	if r.Size <= 0 {
		errs.add("size", "size must be positive")
	}
	return errs.orNil()
}

// AssetUpdateRequest patches asset metadata; a nil field is left unchanged.
type AssetUpdateRequest struct {
	Filename     *string   `json:"filename,omitempty"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
}

func (r AssetUpdateRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if r.Filename == nil && r.ThumbnailURL == nil && r.Tags == nil {
		errs.add("body", "at least one field is required")
	}
	if r.Filename != nil {
		if strings.TrimSpace(*r.Filename) == "" {
			errs.add("filename", "filename must not be empty")
		} else if len(*r.Filename) > 255 {
			errs.add("filename", "filename must be at most 255 characters")
		}
	}
	if r.ThumbnailURL != nil && len(*r.ThumbnailURL) > 2048 {
		errs.add("thumbnail_url", "thumbnail_url must be at most 2048 characters")
	}
	if r.Tags != nil && len(*r.Tags) > 50 {
		errs.add("tags", "at most 50 tags are allowed")
	}
	return errs.orNil()
}

type UpdateAccountRequest struct {
	FullName string `json:"full_name"`
}

func (r *UpdateAccountRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
}

func (r UpdateAccountRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if utf8.RuneCountInString(r.FullName) > 100 {
		errs.add("full_name", "full name must be at most 100 characters")
	}
	return errs.orNil()
}

type ProfileRequest struct {
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

func (r *ProfileRequest) Normalize() {
	r.Bio = strings.TrimSpace(r.Bio)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
	r.Address = strings.TrimSpace(r.Address)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

func (r ProfileRequest) Validate() map[string]string {
	errs := ValidationErrors{}
	if utf8.RuneCountInString(r.Bio) > 1000 {
		errs.add("bio", "bio must be at most 1000 characters")
	}
	if len(r.AvatarURL) > 2048 {
		errs.add("avatar_url", "avatar_url must be at most 2048 characters")
	}
	if utf8.RuneCountInString(r.Address) > 255 {
		errs.add("address", "address must be at most 255 characters")
	}
	if !phonePattern.MatchString(r.PhoneNumber) {
		errs.add("phone_number", "phone_number may hold digits, spaces and + ( ) - only, at most 32")
	}
	return errs.orNil()
}
