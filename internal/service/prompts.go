package service

// contentPlaceholder 会被替换为提取出的文档文本。
const contentPlaceholder = "{content}"

const defaultBlogPrompt = `Please analyze the following legal judgment and create a well-structured blog post. The blog post should:
1. Have a clear and engaging introduction that highlights the key legal issue and outcome
2. Be well-organized with proper headings and sections
3. Include relevant legal precedents and citations
4. Explain the legal reasoning and implications
5. Have a strong conclusion summarizing the key takeaways
6. Be optimized for readability while maintaining legal accuracy

Content to analyze:
{content}

Please format the response as a blog post with proper HTML formatting. Follow these formatting guidelines:

1. Images:
   - Center align all images using <div style="text-align: center;">
   - Add proper spacing before and after images
   - Include descriptive alt text for accessibility

2. Text Formatting:
   - Use proper heading hierarchy (h1, h2, h3)
   - Add appropriate spacing between sections
   - Use bullet points or numbered lists where appropriate
   - Highlight important quotes or citations in blockquotes
   - Use bold or italic text sparingly for emphasis
   - Keep paragraphs concise and well-spaced

3. Structure:
   - Start with a clear introduction
   - Break content into logical sections
   - Use subheadings to guide readers
   - End with a strong conclusion

Example formatting:
<div style="text-align: center;">
  <img src="image.jpg" alt="Description of the image" style="max-width: 100%; height: auto;">
</div>

<h2>Section Title</h2>
<p>Well-formatted paragraph with proper spacing...</p>

<blockquote>
  Important quote or citation...
</blockquote>

The title should be a concise representation of the key legal issue and outcome, following this format:
"[Case Name/Parties] v. [Case Name/Parties]: [Key Legal Issue] - [Outcome]"

For example:
"State of California v. Smith: Supreme Court Rules on Fourth Amendment Rights in Digital Age"
"Johnson v. Department of Education: Federal Court Upholds Title IX Protections for Transgender Students"

Please ensure the title accurately represents the judgment while being engaging and informative.`

const (
	bodySystemPrompt = "You are a professional blog writer who creates engaging, well-structured content with proper HTML formatting. Focus on readability and visual appeal."

	titleSystemPrompt = "You are a legal content writer who creates clear and informative titles for legal judgments. Follow this format: '[Case Name/Parties] v. [Case Name/Parties]: [Key Legal Issue] - [Outcome]'. Make the title concise but informative, highlighting the key legal issue and outcome."
	titleUserPrompt   = "Create a compelling title for this legal judgment (max 100 characters):\n\n"

	keywordsSystemPrompt = "You are a professional content strategist who identifies relevant keywords. Answer with a single comma-separated line."
	keywordsUserPrompt   = "Extract 5-7 relevant keywords from this blog post:\n\n"

	summarySystemPrompt = "You are a professional content summarizer. Create a concise summary that captures the key points of the legal judgment."
	summaryUserPrompt   = "Create a brief summary (max 200 characters) of this blog post:\n\n"
)

const imagePromptSystemPrompt = `You are an expert at creating detailed image prompts for legal blog posts.
Analyze the content and create a prompt that will generate a professional, relevant image.
The prompt should:
1. Be specific and detailed
2. Focus on legal/professional themes which are related to the indian judicial system.
3. Avoid any controversial or inappropriate content
4. Make sure the image is not too dark or too light and make sure the image does not contain any people or text.
5. Be suitable for a professional blog
6. Be in English
7. Be between 100-200 characters

Format the response as just the prompt text, nothing else.`

const imageSpellingSuffix = " Ensure correct spelling of any word in the image."
