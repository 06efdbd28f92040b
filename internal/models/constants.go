// Package models contains data types and constants shared by the chat client and relay.
package models

// Endpoints
const (
	EndpointChat   = "/api/chat"
	EndpointHealth = "/health"

	DefaultServerURL = "http://localhost:5000"
)

// DefaultHeaders returns the headers sent with every chat request.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "aichat/1.0",
	}
}

// Texts rendered into the transcript. These are part of the product's UI and
// must stay byte-for-byte stable so existing users see the same messages.
const (
	ErrorPrefix          = "错误: "
	TextRequestFailed    = "请求失败"
	TextInvalidResponse  = "收到无效的响应"
	NetworkErrorPrefix   = "网络错误: "
	NetworkErrorSuffix   = "。请检查后端服务器是否正在运行。"
	TextWelcomeTitle     = "你好！我是AI助手"
	TextWelcomeSubtitle  = "有什么可以帮助你的吗？"
	TextLoadingIndicator = "AI正在思考"
)

// Relay error texts returned by the /api/chat backend.
const (
	RelayBadRequest       = "请求数据格式错误"
	RelayEmptyMessage     = "消息不能为空"
	RelayMissingKey       = "API密钥未配置，请在.env文件中设置AI_API_KEY"
	RelayMissingURL       = "API地址未配置，请在.env文件中设置AI_API_URL"
	RelayMissingModel     = "模型名称未配置，请在.env文件中设置AI_MODEL"
	RelayBadUpstreamShape = "API返回格式异常，请检查API配置"
	RelayUpstreamFailed   = "API调用失败"
	RelayTimeout          = "请求超时，请稍后重试"
	RelayAPIErrorPrefix   = "API错误: "
	RelayServerErrPrefix  = "服务器错误: "
	RelayRateLimited      = "请求过于频繁，请稍后重试"
)

// JSON paths into an OpenAI-compatible completion. Some gateways nest the
// payload under "data".
const (
	PathCompletion        = "choices.0.message.content"
	PathWrappedCompletion = "data.choices.0.message.content"
	PathUpstreamError     = "error"
	PathUpstreamErrorText = "error.message"
	PathUpstreamMessage   = "message"
)
