// Package platform provides the unified publishing adapter contract for publishhub
package platform

// Type identifies a publishing platform. The set is closed: configs naming
// anything else are skipped at manager construction.
type Type string

const (
	// TypeDouyin is the Douyin short-video platform
	TypeDouyin Type = "douyin"
	// TypeWeChat is the WeChat official-account platform
	TypeWeChat Type = "wechat"
	// TypeXiaohongshu is the Xiaohongshu note platform
	TypeXiaohongshu Type = "xiaohongshu"
	// TypeBilibili is the Bilibili video platform
	TypeBilibili Type = "bilibili"
	// TypeWeibo is the Weibo microblog platform
	TypeWeibo Type = "weibo"
	// TypeKuaishou is the Kuaishou short-video platform. Recognized as an
	// identifier but no adapter implementation ships yet; enabled configs
	// for it are logged and skipped.
	TypeKuaishou Type = "kuaishou"
)

// All returns every known platform type.
func All() []Type {
	return []Type{TypeDouyin, TypeWeChat, TypeXiaohongshu, TypeBilibili, TypeWeibo, TypeKuaishou}
}

// IsValid reports whether t is a known platform type.
func (t Type) IsValid() bool {
	switch t {
	case TypeDouyin, TypeWeChat, TypeXiaohongshu, TypeBilibili, TypeWeibo, TypeKuaishou:
		return true
	}
	return false
}

// String returns the platform name.
func (t Type) String() string {
	return string(t)
}

// TokenPair holds the credentials returned by a token exchange or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	OpenID       string `json:"open_id,omitempty"`
}

// ValidationResult carries the outcome of a content validation pass.
// Errors lists every violated rule, not just the first one, so callers can
// surface all problems at once.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// NewValidationResult creates an empty, valid result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true, Errors: []string{}}
}

// AddError records a violated rule and marks the result invalid.
func (v *ValidationResult) AddError(msg string) {
	v.Valid = false
	v.Errors = append(v.Errors, msg)
}

// Invalid creates a failed result from the given rule violations.
func Invalid(errs ...string) *ValidationResult {
	return &ValidationResult{Valid: false, Errors: errs}
}
