package botflow

// Bot copy. Kept in one place so the flow handlers stay free of literals.
const (
	textGreeting = "Привет! Я бот диагностики Personal Potentials.\n\nНажми кнопку — я выдам персональную ссылку."
	textPrompt   = "Нажми «✨ Начать», и я выдам персональную ссылку."
	textLinkSent = "Отлично! Вот твоя персональная ссылка на диагностику 👇"

	textStartBtn = "✨ Начать"
	textOpenBtn  = "🚀 Начать диагностику"
	textGroupBtn = "🔥 Войти в группу разбора"
	textPayBtn   = "💎 Платная консультация"

	textCompletedFmt = "✅ %s! Диагностика завершена.\n\nВыбирай следующий шаг:"
	textDoneFallback = "Готово"

	startDescription = "Начать диагностику"

	// callbackStartDiag is the action id carried by the invitation button.
	callbackStartDiag = "start_diag"
)
