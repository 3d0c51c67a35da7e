package fsm

import "github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/tgapi"

type sentMessage struct {
	chatID   int64
	text     string
	keyboard [][]tgapi.Button
}

type fakeChatClient struct {
	sent []sentMessage
}

var _ tgapi.Client = (*fakeChatClient)(nil)

func (f *fakeChatClient) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeChatClient) SendMessageWithKeyboard(chatID int64, text string, keyboard [][]tgapi.Button) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, keyboard: keyboard})
	return nil
}

func (f *fakeChatClient) AnswerCallback(callbackID string) error {
	return nil
}

func (f *fakeChatClient) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].text
}
