package domain

// MenuState is the dialogue state machine position of a session.
type MenuState string

const (
	StateIdle         MenuState = "idle"
	StateWelcome      MenuState = "welcome"
	StateMainMenu     MenuState = "main"
	StateDeviceChoice MenuState = "device_choice"
	StateDeviceMenu   MenuState = "device"
	StateTerminated   MenuState = "terminated"
)
