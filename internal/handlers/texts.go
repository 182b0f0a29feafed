package handlers

const (
	txtWelcome = "Welcome to MyMeds!\n\n" +
		"Your chat id is %d. Link it from your account (PUT /api/me/telegram) to get dose reminders here."
	txtWelcomeLinked = "This chat is linked to %s. Use /meds to see your medicines."
	txtNotLinked     = "This chat is not linked to a MyMeds account yet. Send /start to get your chat id."
	txtHelp          = "Commands:\n" +
		"/meds - your medicines and adherence\n" +
		"/taken <id> - log a dose as taken now\n" +
		"/start - show your chat id"
	txtNoMeds         = "You have no medicines yet."
	txtTakenUsage     = "Usage: /taken <medicine id>. Find the id with /meds."
	txtUnknownMed     = "No such medicine."
	txtLogged         = "Logged %s. Adherence is now %.1f%%."
	txtSomethingWrong = "Something went wrong, please try again later."

	btnTaken = "✅ %s"
)
