package llm

import "fmt"

func summaryPrompt(transcript string) string {
	return fmt.Sprintf(`Summarize the following group conversation. Focus on:
- Key decisions made
- Tasks assigned or mentioned
- Important discussions
- Deadlines or time-sensitive items

Conversation:
%s

Provide a clear, organized summary in English:`, transcript)
}

func actionItemsPrompt(transcript, userName string) string {
	return fmt.Sprintf(`Analyze this conversation and extract ONLY action items that are specifically for "%[1]s".

Look for things that %[1]s personally needs to do:
- Tasks directly assigned to %[1]s by name
- Messages that mention "@%[1]s"
- Questions specifically directed at %[1]s
- Requests made specifically to %[1]s
- When someone says "%[1]s, please..." or "Hey %[1]s..."
- Deadlines that %[1]s personally needs to meet
- Things %[1]s needs to respond to or follow up on

DO NOT include:
- General group announcements
- Tasks assigned to other people
- Questions asked to the group in general (unless %[1]s is specifically mentioned)

Conversation:
%[2]s

Format response as:
• [Specific action item for %[1]s]

If no specific personal action items found for %[1]s, return "No personal action items found for you in these messages."
Respond in English only.`, userName, transcript)
}

func questionPrompt(question, transcript, userName string) string {
	return fmt.Sprintf(`Based on this group conversation, answer the following question from %s:

Question: %s

Conversation context:
%s

Provide a helpful answer based on the conversation. If the information isn't available in the conversation, say so clearly.
Respond in English only.`, userName, question, transcript)
}
