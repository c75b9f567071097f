package prompt

// Template is the instruction sent with every product photo. The numbered
// layout it asks for is what the caption parser and the model both rely on.
const Template = `You are a professional social media consultant. Using the product image below, write 3 caption options for an Instagram post.

REQUIREMENTS:
- Make use of the product's visual features
- Generate exactly 3 caption options
- Each caption is at most 200 characters
- Follow each caption with exactly 3 hashtags
- Use a friendly tone
- Use emoji in moderation
- Include a call-to-action phrase

OUTPUT FORMAT:
1. [caption option 1]
   - Hashtags: #xxx #yyy #zzz
2. [caption option 2]
   - Hashtags: #aaa #bbb #ccc
3. [caption option 3]
   - Hashtags: #ddd #eee #fff
`

const (
	// CaptionCount is the number of options the template requests.
	CaptionCount = 3
	// MaxCaptionLength is the per-caption character limit the template requests.
	MaxCaptionLength = 200
	// HashtagCount is the number of hashtags requested per caption.
	HashtagCount = 3
)
