package anthropic

// BuildCachedSystemBlocks constructs a system prompt block with a 5-minute
// cache breakpoint. The workflow prompts are static, so consecutive runs in
// a batch or schedule tick read the prompt from cache.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
}
