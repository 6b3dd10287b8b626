package pipeline

const systemPrompt = `You are an email analysis assistant. You always respond with a single JSON object and nothing else.`

const cleanupPromptFormat = `Clean the following unread emails by removing boilerplate: signatures, legal
footers, unsubscribe links, tracking junk and quoted reply chains. Keep the
meaningful content intact. Do not summarize yet.

Respond with a JSON object containing:
- emails: array of objects, one per input email, each with:
  - subject: string (unchanged subject line)
  - sender: string (sender email address)
  - timestamp: string (ISO 8601 timestamp, unchanged)
  - body: string (cleaned body with boilerplate removed)
  - image_urls: array of strings (the image URLs provided for that email, unchanged)
- total_count: number of emails processed

Emails (JSON):
%s

Respond only with the JSON object and nothing else.`

const analysisPromptFormat = `Analyze the following cleaned emails and produce a consolidated summary.
Write every human-readable string (key points, action items, priority
assessment, summary text) in the language with ISO 639-1 code %q.

Respond with a JSON object containing:
- total_count: number of emails analyzed
- email_summaries: array of objects, one per email, each with:
  - subject: string
  - sender: string
  - timestamp: string (ISO 8601)
  - key_points: array of strings
  - action_items: array of strings
  - has_deadline: boolean (true if the email contains time-sensitive information)
- action_items: array of strings (all action items across all emails)
- priority_assessment: string (overall priority, e.g. High, Medium, Low)
- summary_text: string (full markdown-formatted summary of everything)

Cleaned emails (JSON):
%s
%s
Respond only with the JSON object and nothing else.`

const visionContextFormat = `
Text extracted from images embedded in these emails (JSON):
%s
Incorporate this extracted text into the summaries where relevant.
`
