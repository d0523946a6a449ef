package processor

import "fmt"

// largeItemPageThreshold selects the large-item prompt when an item's total
// attachment page count meets or exceeds this value.
const largeItemPageThreshold = 100

const responseSchemaJSON = `{"type":"object","required":["summary","topics"],"properties":{"summary":{"type":"string"},"topics":{"type":"array","items":{"type":"string"}}}}`

// BuildItemPrompt selects between the standard and large-item prompt based
// on pageCount, embedding the item title and its item-specific document
// text. sharedContext is inlined only when no cache handle was created for
// it (cached is false); when cached is true the caller has already attached
// a CacheRef and sharedContext is omitted here to avoid sending it twice.
func BuildItemPrompt(title, itemText, sharedContext string, pageCount int, cached bool) string {
	instructions := standardInstructions
	if pageCount >= largeItemPageThreshold {
		instructions = largeItemInstructions
	}

	if cached || sharedContext == "" {
		return fmt.Sprintf("%s\n\nAgenda item: %s\n\nItem documents:\n%s", instructions, title, itemText)
	}
	return fmt.Sprintf("%s\n\nMeeting context:\n%s\n\nAgenda item: %s\n\nItem documents:\n%s",
		instructions, sharedContext, title, itemText)
}

const standardInstructions = `Summarize this city council agenda item for a resident with no legal background. Produce a concise summary and a short list of topics.`

const largeItemInstructions = `Summarize this lengthy agenda item for a resident with no legal background. The supporting documents are long; focus on the decision being made, who it affects, and the public's opportunity to comment. Produce a concise summary and a short list of topics.`

// BuildMonolithicPrompt is used for the no-items fallback path: a single
// call against the whole packet's extracted text.
func BuildMonolithicPrompt(meetingTitle, packetText string) string {
	return fmt.Sprintf("%s\n\nMeeting: %s\n\nFull packet:\n%s", standardInstructions, meetingTitle, packetText)
}
