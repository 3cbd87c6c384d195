// Package docs provides the Swagger documentation for the API.
package docs

// @title           Chat Dialect Adapter
// @version         1.0
// @description     Adapts OpenAI-dialect chat completion payloads to backend dialects, injecting per-backend system prompts and custom roles.
// @termsOfService  https://github.com/adaptly-ai/go-chat-dialect-adapter/blob/main/LICENSE

// @contact.name   API Support
// @contact.url    https://github.com/adaptly-ai/go-chat-dialect-adapter

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8082
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the API key value (relayed to the backend unchanged).
