package bot

import "github.com/pandodao/gasless-wallet/core"

const (
	tagShowMenu = "show_menu"
	tagRegister = "register"
	tagSend     = "send"
	tagReceive  = "receive"
	tagBalance  = "balance"
	tagHistory  = "history"
	tagCancel   = "cancel"
)

var (
	mainMenu = core.Menu{
		{{Text: "Register", Action: tagRegister}},
		{{Text: "Send", Action: tagSend}, {Text: "Receive", Action: tagReceive}},
		{{Text: "Balance", Action: tagBalance}, {Text: "History", Action: tagHistory}},
	}

	startMenu = core.Menu{
		{{Text: "Start", Action: tagShowMenu}},
	}

	cancelMenu = core.Menu{
		{{Text: "Cancel", Action: tagCancel}},
	}
)

const (
	textWelcome       = "Welcome! Send and receive stable tokens without paying gas."
	textChooseOption  = "Choose an option:"
	textUseMenu       = "Please use the menu below."
	textCancelled     = "Cancelled."
	textAlreadyExists = "You already have a wallet."
	textNoWallet      = "You don't have a wallet yet. Tap Register to create one."
	textFailure       = "Something went wrong. Please try again later."
	textBusy          = "Still working on your earlier messages. Please wait a moment."

	textAskNewPin     = "Choose a 4-digit PIN. You will need it to authorize transfers."
	textBadNewPin     = "PIN must be exactly 4 digits. Try again."
	textAskEmail      = "Now enter your email address."
	textBadEmail      = "Please enter a valid email address."
	textAskPin        = "Enter your 4-digit PIN to continue."
	textIncorrectPin  = "Incorrect PIN. Try again."
	textAskRecipient  = "Who do you want to send to? Enter a wallet address or @username."
	textAskSendAmount = "How much do you want to send? Enter a whole number."
	textAskRecvAmount = "How much do you want to receive? Enter a whole number."
	textBadAmount     = "Please enter a positive whole number."
)
