package httpapi

// Result 所有接口共用的响应包络；前端按 code 而非 HTTP 状态码分支
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultSessionExpired 配合 HTTP 401 返回，前端跳转登录页
	ResultSessionExpired = 60401
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message}
}

func SessionExpired(message string) Result[any] {
	return Result[any]{Code: ResultSessionExpired, Type: "error", Message: message}
}
