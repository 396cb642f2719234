// Package agent delegates tasks to an LLM provider and tracks the session,
// spend, and token usage of each invocation. Three providers are supported
// through their official SDKs (Anthropic, OpenAI, Gemini); New picks one
// from the configured provider name or infers it from the model name.
//
// Sessions live in process memory. Passing a result's SessionID back as
// ResumeSessionID continues the conversation with full context, which the
// executor uses to feed verification failures back to the same session.
package agent
