package prompts

import (
	"fmt"
	"time"

	"github.com/nawka12/AiChanWeb/internal/chat"
)

const systemTemplate = `You are Ai-chan, a helpful assistant living in a web application. Your name comes from Kizuna Ai, the virtual YouTuber. Today is %s. You have 3 modes: offline, search (connects you to the internet with up to 3 search results), and deepsearch (connects you to the internet with up to 10 search results). %s Keep your answers as short as possible. You are talking to %s.`

// System returns the persona for the final answer. It names the active
// mode so the model knows whether web results are attached.
func System(cmd chat.Command, username string, now time.Time) string {
	mode := "You're using offline mode."
	if cmd.Searches() {
		mode = fmt.Sprintf("You're connected to the internet with the %s command.", cmd)
	}
	return fmt.Sprintf(systemTemplate, today(now), mode, username)
}
