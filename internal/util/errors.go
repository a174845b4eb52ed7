package util

import "errors"

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailRegistered = errors.New("该邮箱已被注册")
	ErrWrongPassword   = errors.New("邮箱或密码错误")

	// 凭证核销失败，按检查顺序区分
	ErrCredentialNotFound = errors.New("credential not found")
	ErrWrongEmail         = errors.New("email does not match credential")
	ErrCredentialUsed     = errors.New("credential already used")
	ErrCredentialExpired  = errors.New("credential expired")
	ErrAlreadyCompleted   = errors.New("assessment already completed")
	ErrTooManyAttempts    = errors.New("too many verification attempts")

	// 会话状态冲突，与授权失败可区分
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionTerminal     = errors.New("session already closed")
	ErrSessionNotStarted   = errors.New("session not started")
	ErrPermissionsRequired = errors.New("camera and microphone permissions required")
	ErrIllegalTransition   = errors.New("illegal session state transition")

	ErrInvalidSeverity = errors.New("invalid violation severity")
)

// 对外稳定的失败原因码，前端依赖这些值给出不同引导
const (
	ReasonInvalid          = "invalid"
	ReasonWrongEmail       = "wrong_email"
	ReasonAlreadyUsed      = "already_used"
	ReasonExpired          = "expired"
	ReasonAlreadyCompleted = "already_completed"
	ReasonTooManyAttempts  = "too_many_attempts"
	ReasonSessionClosed    = "session_closed"
)

// VerifyReason 把核销错误映射为稳定原因码；非核销错误返回空串
func VerifyReason(err error) string {
	switch {
	case errors.Is(err, ErrCredentialNotFound):
		return ReasonInvalid
	case errors.Is(err, ErrWrongEmail):
		return ReasonWrongEmail
	case errors.Is(err, ErrCredentialUsed):
		return ReasonAlreadyUsed
	case errors.Is(err, ErrCredentialExpired):
		return ReasonExpired
	case errors.Is(err, ErrAlreadyCompleted):
		return ReasonAlreadyCompleted
	case errors.Is(err, ErrTooManyAttempts):
		return ReasonTooManyAttempts
	}
	return ""
}
