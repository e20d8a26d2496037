package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fitmate/web/types"

	"github.com/a-h/templ"
)

// PageData is everything the chat page renders.
type PageData struct {
	Agents   []types.AgentInfo
	Current  types.AgentInfo
	Goal     string
	Messages []types.RenderedMessage
}

// ChatPage renders the full chat page.
func ChatPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>FitMate</title><style>` + pageStyle + `</style></head><body>`)

		b.WriteString(`<aside class="sidebar"><h2>FitMate agents</h2>`)
		b.WriteString(`<form method="get" action="/" id="picker">`)
		b.WriteString(`<label for="agent">Choose an agent:</label><select name="agent" id="agent" onchange="this.form.submit()">`)
		for _, a := range data.Agents {
			fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
				templ.EscapeString(a.Key), selected(a.Key == data.Current.Key), templ.EscapeString(a.Label))
		}
		b.WriteString(`</select>`)
		if len(data.Current.Goals) > 0 {
			b.WriteString(`<label for="goal">Goal (optional):</label><select name="goal" id="goal" onchange="this.form.submit()">`)
			fmt.Fprintf(&b, `<option value=""%s>(not specified)</option>`, selected(data.Goal == ""))
			for _, g := range data.Current.Goals {
				fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
					templ.EscapeString(g), selected(g == data.Goal), templ.EscapeString(g))
			}
			b.WriteString(`</select>`)
		}
		b.WriteString(`</form></aside>`)

		b.WriteString(`<main><div id="messages">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		for _, msg := range data.Messages {
			if err := MessageBubble(msg).Render(ctx, w); err != nil {
				return err
			}
		}

		b.Reset()
		b.WriteString(`</div><form id="chat-form">`)
		fmt.Fprintf(&b, `<input type="hidden" name="agent" value="%s">`, templ.EscapeString(data.Current.Key))
		fmt.Fprintf(&b, `<input type="hidden" name="goal" value="%s">`, templ.EscapeString(data.Goal))
		b.WriteString(`<textarea name="message" placeholder="Ask FitMate …" required></textarea>`)
		b.WriteString(`<button type="submit">Send</button></form></main>`)
		b.WriteString(`<script>` + pageScript + `</script></body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// MessageBubble renders one chat message. HTML is produced by the Markdown
// renderer, which drops raw HTML from its input.
func MessageBubble(msg types.RenderedMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="bubble %s" id="msg-%s">%s</div>`,
			templ.EscapeString(msg.Role), templ.EscapeString(msg.ID), msg.HTML)
		return err
	})
}

func selected(ok bool) string {
	if ok {
		return " selected"
	}
	return ""
}

const pageStyle = `
body{margin:0;display:flex;font-family:system-ui,sans-serif;background:#fafafa}
.sidebar{width:240px;padding:1rem;background:#fff;border-right:1px solid #eee}
.sidebar select{width:100%;margin:.25rem 0 1rem}
main{flex:1;max-width:950px;margin:0 auto;padding:1rem;display:flex;flex-direction:column;height:100vh;box-sizing:border-box}
#messages{flex:1;overflow-y:auto}
.bubble{border-radius:1.25rem;padding:.75rem 1rem;margin:.5rem 0;max-width:85%;font-size:.95rem;line-height:1.45}
.bubble.assistant{margin-right:auto;background:#f5f5f5;color:#333;box-shadow:0 1px 4px rgba(0,0,0,.06)}
.bubble.user{margin-left:auto;background:linear-gradient(135deg,#8f5bea,#6a39d7);color:#fff;box-shadow:0 1px 4px rgba(0,0,0,.12)}
.bubble.typing{white-space:pre-wrap}
#chat-form{display:flex;gap:.5rem}
#chat-form textarea{flex:1;min-height:46px;border-radius:1rem;padding:.6rem 1rem}
#chat-form button{background:linear-gradient(135deg,#7e5bef,#5f27cd);color:#fff;border:none;border-radius:8px;font-weight:600;padding:0 1.5rem;cursor:pointer}
`

const pageScript = `
const form = document.getElementById('chat-form');
const box = document.getElementById('messages');
form.addEventListener('submit', async (e) => {
  e.preventDefault();
  const body = new FormData(form);
  form.message.value = '';
  const res = await fetch('/chat', {method: 'POST', body});
  const data = await res.json();
  if (!res.ok) { alert(data.error); return; }
  box.insertAdjacentHTML('beforeend', '<div class="bubble user">' + data.user.html + '</div>');
  const reply = document.createElement('div');
  reply.className = 'bubble assistant typing';
  box.appendChild(reply);
  const src = new EventSource('/chat/stream?agent=' + encodeURIComponent(data.agent) + '&message_id=' + encodeURIComponent(data.assistant.id));
  src.onmessage = (ev) => {
    const d = JSON.parse(ev.data);
    if (d.type === 'chunk') { reply.textContent += d.content; }
    else { reply.classList.remove('typing'); if (d.type === 'end') reply.innerHTML = d.content; src.close(); }
    box.scrollTop = box.scrollHeight;
  };
  src.onerror = () => { src.close(); reply.classList.remove('typing'); reply.innerHTML = data.assistant.html; };
});
`
