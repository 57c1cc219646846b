// Package qwen implements the native Alibaba DashScope text-generation
// adapter used for Qwen models.
//
// Requests carry {model, input{messages}, parameters{...}} and are sent
// with Content-Type application/json;charset=utf8 and bearer auth. Replies
// are read from output.choices with output.usage as token counts.
//
// The adapter is registered as type "dashscope". Type "qwen" selects the
// OpenAI-compatible preset in package generic instead, so a configuration
// whose api_base points at the native https://dashscope.aliyuncs.com/api/v1
// root must use "dashscope":
//
//	providers:
//	  qwen:
//	    type: dashscope
//	    api_base: https://dashscope.aliyuncs.com/api/v1
//	    api_key: ${DASHSCOPE_API_KEY}
package qwen
