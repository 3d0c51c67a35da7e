package fsm

import "fmt"

// Chat-visible text, kept in one place as a single catalog. All strings
// are short, self-contained, and in Russian; nothing here ever includes
// stack traces or internal identifiers.
const (
	msgJoinPrompt        = "Собираем игроков! Нажмите \"Присоединиться\", чтобы войти в игру."
	msgPlayersConnected  = "Подключились (%d/%d) игроков"
	msgNotEnoughPlayers  = "Недостаточно игроков (%d/%d).\nИгра завершена."
	msgYourTurn          = "Ваш ход! Слово: %s\nБонус за ход: %d"
	msgPlayerTimeout     = "Вы не успели, переход хода"
	msgPromptLetter      = "Назовите букву"
	msgPromptWord        = "Назовите слово целиком"
	msgNotALetter        = "Это не буква!"
	msgLetterAlreadyUsed = "Такую букву уже называли!"
	msgLetterNotInWord   = "Такой буквы нет в слове"
	msgCorrectLetter     = "Верно!"
	msgWrongWord         = "Неверно!"
	msgGameFinished      = "Игра окончена!\n\n%s"
)

func fmtPlayersConnected(count, min int) string {
	return fmt.Sprintf(msgPlayersConnected, count, min)
}

func fmtNotEnoughPlayers(count, min int) string {
	return fmt.Sprintf(msgNotEnoughPlayers, count, min)
}

func fmtYourTurn(masked string, bonus int) string {
	return fmt.Sprintf(msgYourTurn, masked, bonus)
}

func fmtGameFinished(scoreboard string) string {
	return fmt.Sprintf(msgGameFinished, scoreboard)
}
