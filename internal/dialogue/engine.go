// Package dialogue runs the finite-state conversation that turns recognized
// speech into device commands.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sheila/internal/domain"
	"sheila/internal/infra"
	"sheila/internal/infra/speech"
	"sheila/internal/infra/weather"
	"sheila/internal/normalize"
)

// Listener yields one recognized input per call. Implementations live in
// internal/infra/listen.
type Listener interface {
	Start(ctx context.Context) error
	Stop() error
	Listen(ctx context.Context) (string, error)
	Name() string
}

type DeviceRegistry interface {
	List(ctx context.Context) ([]domain.Device, error)
	Get(ctx context.Context, id string) (domain.Device, error)
	SetPower(ctx context.Context, id string, on bool) (domain.Device, error)
	SetFanSpeed(ctx context.Context, id string, speed int) (domain.Device, error)
}

type CommandLog interface {
	Append(ctx context.Context, entry domain.CommandEntry) error
}

type WeatherProvider interface {
	Current(ctx context.Context) (string, error)
}

const (
	farewellText     = "Thanks for interacting with me. Just call me when you need my service."
	invalidText      = "The input command is invalid."
	apologyText      = "Sorry, I could not understand you."
	welcomeQuestion  = "Would you like me to take you through the control menu?"
	yesNoPrompt      = "Please say 'yes' if you want to see the control menu, or 'no' to exit."
	choiceYesNo      = "Please say 'yes' to see the device menu, or 'no' to exit."
	maxMenuDevices   = 4
	maxCommandSpeed  = 4
	anythingElseText = "Anything else?"
)

type Options struct {
	WakeWords     []string
	UserName      string
	ListenTimeout time.Duration
	ListenRetries int
}

func (o *Options) setDefaults() {
	if len(o.WakeWords) == 0 {
		o.WakeWords = []string{"sheila", "sheela"}
	}
	if o.UserName == "" {
		o.UserName = "User"
	}
	if o.ListenTimeout <= 0 {
		o.ListenTimeout = 30 * time.Second
	}
	if o.ListenRetries <= 0 {
		o.ListenRetries = 3
	}
}

type Engine struct {
	listener Listener
	speaker  speech.Speaker
	devices  DeviceRegistry
	log      CommandLog
	weather  WeatherProvider
	logger   *slog.Logger
	opts     Options
	now      func() time.Time
}

func NewEngine(
	listener Listener,
	speaker speech.Speaker,
	devices DeviceRegistry,
	log CommandLog,
	weather WeatherProvider,
	logger *slog.Logger,
	opts Options,
) *Engine {
	opts.setDefaults()
	return &Engine{
		listener: listener,
		speaker:  speaker,
		devices:  devices,
		log:      log,
		weather:  weather,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// Run loops conversations until the context is cancelled: wait for a wake
// word, run the session to its terminal state, return to idle.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("starting input source", "source", e.listener.Name())
	if err := e.listener.Start(ctx); err != nil {
		return fmt.Errorf("starting listener: %w", err)
	}
	defer e.listener.Stop()

	e.logger.Info("dialogue engine ready, waiting for wake word")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		input, err := e.listener.Listen(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("listening for wake word", "error", err)
			continue
		}

		if !e.hasWakeWord(input) {
			continue
		}

		e.logger.Info("wake word detected, starting session")
		if err := e.RunSession(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error("session ended with error", "error", err)
		}
	}
}

// RunSession drives one conversation from the welcome announcement to the
// terminal state.
func (e *Engine) RunSession(ctx context.Context) error {
	session := NewSession()
	e.announceWelcome(ctx, session)

	for session.State != domain.StateTerminated {
		if ctx.Err() != nil {
			session.terminate()
			return ctx.Err()
		}

		input, ok := e.nextInput(ctx)
		if !ok {
			// Retry budget exhausted: log the failed attempt and end the
			// session rather than leaking it.
			session.beginTurn(e.now())
			e.say(ctx, apologyText)
			e.record(ctx, session, "", domain.StatusFailed, apologyText)
			e.say(ctx, farewellText)
			session.terminate()
			break
		}

		e.Advance(ctx, session, input)
	}

	e.logger.Info("session terminated")
	return nil
}

// Advance feeds one raw input into the session's current state.
func (e *Engine) Advance(ctx context.Context, s *Session, raw string) {
	s.beginTurn(e.now())
	input := normalize.Normalize(raw)

	switch s.State {
	case domain.StateWelcome:
		e.handleWelcome(ctx, s, input)
	case domain.StateMainMenu:
		e.handleMainMenu(ctx, s, input)
	case domain.StateDeviceChoice:
		e.handleDeviceChoice(ctx, s, input)
	case domain.StateDeviceMenu:
		e.handleDeviceMenu(ctx, s, input)
	default:
		e.logger.Warn("input in unexpected state", "state", s.State)
	}
}

func (e *Engine) hasWakeWord(input string) bool {
	input = strings.ToLower(input)
	for _, w := range e.opts.WakeWords {
		if strings.Contains(input, w) {
			return true
		}
	}
	return false
}

func (e *Engine) announceWelcome(ctx context.Context, s *Session) {
	now := e.now()

	conditions, err := e.weather.Current(ctx)
	if err != nil {
		e.logger.Warn("weather lookup failed, degrading", "error", err)
		conditions = weather.Unavailable
	}

	message := fmt.Sprintf(
		"%s, %s! I am your personal home assistant Sheila. The time is %s and it's %s. What would you like to control today?",
		greetingFor(now.Hour()),
		e.opts.UserName,
		now.Format("3:04 PM"),
		conditions,
	)
	e.say(ctx, message)
	e.say(ctx, welcomeQuestion)

	s.State = domain.StateWelcome
}

func (e *Engine) handleWelcome(ctx context.Context, s *Session, input string) {
	switch input {
	case "yes":
		e.showMainMenu(ctx, s)
	case "no":
		e.farewell(ctx, s)
	default:
		e.invalid(ctx, s)
	}
}

func (e *Engine) showMainMenu(ctx context.Context, s *Session) {
	devices, err := e.devices.List(ctx)
	if err != nil {
		e.logger.Error("listing devices for menu", "error", err)
		e.say(ctx, "I could not look up your devices right now.")
		e.farewell(ctx, s)
		return
	}

	if len(devices) > maxMenuDevices {
		devices = devices[:maxMenuDevices]
	}

	s.menu = s.menu[:0]
	for i, d := range devices {
		s.menu = append(s.menu, menuEntry{
			key:      strconv.Itoa(i + 1),
			deviceID: d.ID,
			label:    fmt.Sprintf("Control %s", d.Name),
		})
	}

	e.say(ctx, e.mainMenuText(s))
	s.State = domain.StateMainMenu
}

func (e *Engine) mainMenuText(s *Session) string {
	var sb strings.Builder
	sb.WriteString("Here are your options: ")
	for _, entry := range s.menu {
		fmt.Fprintf(&sb, "%s for %s. ", entry.key, entry.label)
	}
	sb.WriteString("Please say the number of your choice.")
	return sb.String()
}

func (e *Engine) handleMainMenu(ctx context.Context, s *Session, input string) {
	entry, ok := s.menuEntry(input)
	if !ok {
		e.invalid(ctx, s)
		return
	}

	s.SelectedDevice = entry.deviceID
	e.say(ctx, fmt.Sprintf("You chose %s. What do you want to do with it?", entry.label))
	e.say(ctx, choiceYesNo)
	s.State = domain.StateDeviceChoice
}

func (e *Engine) handleDeviceChoice(ctx context.Context, s *Session, input string) {
	switch input {
	case "yes":
		e.showDeviceMenu(ctx, s)
	case "no":
		e.farewell(ctx, s)
	default:
		e.invalid(ctx, s)
	}
}

func (e *Engine) showDeviceMenu(ctx context.Context, s *Session) {
	device, err := e.devices.Get(ctx, s.SelectedDevice)
	if err != nil {
		e.say(ctx, "That device is no longer available.")
		e.showMainMenu(ctx, s)
		return
	}

	e.say(ctx, deviceMenuText(device))
	s.State = domain.StateDeviceMenu
}

func deviceMenuText(d domain.Device) string {
	if d.IsFan() {
		return fmt.Sprintf(
			"Here are your options for %s: on to start the fan. off to switch it off. A number from 0 to 4 to set the speed level. Please say your choice.",
			d.Name,
		)
	}
	return fmt.Sprintf(
		"Here are your options for %s: on to turn on the bulb. off to turn off the bulb. Please say your choice.",
		d.Name,
	)
}

func (e *Engine) handleDeviceMenu(ctx context.Context, s *Session, input string) {
	device, err := e.devices.Get(ctx, s.SelectedDevice)
	if err != nil {
		e.say(ctx, "That device is no longer available.")
		e.showMainMenu(ctx, s)
		return
	}

	response, err := e.executeDeviceCommand(ctx, device, input)
	if err != nil {
		e.record(ctx, s, input, domain.StatusFailed, invalidText)
		e.invalid(ctx, s)
		return
	}

	e.record(ctx, s, input, domain.StatusSuccess, response)
	e.say(ctx, response)
	e.askContinue(ctx, s)
}

// executeDeviceCommand mutates the registry for an accepted command and
// returns the spoken confirmation. The speed path uses the [0,4] command
// range; 0 is a valid level here even though the HTTP state update clamps
// to [1,3].
func (e *Engine) executeDeviceCommand(ctx context.Context, d domain.Device, cmd string) (string, error) {
	switch {
	case cmd == "on":
		if _, err := e.devices.SetPower(ctx, d.ID, true); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s has been turned on", d.Name), nil

	case cmd == "off":
		if _, err := e.devices.SetPower(ctx, d.ID, false); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s has been turned off", d.Name), nil

	case d.IsFan():
		speed, err := strconv.Atoi(cmd)
		if err != nil || speed < 0 || speed > maxCommandSpeed {
			return "", fmt.Errorf("unrecognized fan command %q", cmd)
		}
		if _, err := e.devices.SetFanSpeed(ctx, d.ID, speed); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s speed is now set to level %d out of %d", d.Name, speed, maxCommandSpeed), nil

	default:
		return "", fmt.Errorf("unrecognized bulb command %q", cmd)
	}
}

func (e *Engine) askContinue(ctx context.Context, s *Session) {
	e.say(ctx, anythingElseText)

	input, ok := e.nextInput(ctx)
	if !ok || normalize.Normalize(input) == "no" {
		e.farewell(ctx, s)
		return
	}
	e.showMainMenu(ctx, s)
}

// invalid announces the bad input and re-emits the prompt of the state
// being retried. It never advances the state.
func (e *Engine) invalid(ctx context.Context, s *Session) {
	e.say(ctx, invalidText)

	switch s.State {
	case domain.StateWelcome:
		e.say(ctx, yesNoPrompt)
	case domain.StateMainMenu:
		e.say(ctx, e.mainMenuText(s))
	case domain.StateDeviceChoice:
		e.say(ctx, choiceYesNo)
	case domain.StateDeviceMenu:
		if device, err := e.devices.Get(ctx, s.SelectedDevice); err == nil {
			e.say(ctx, deviceMenuText(device))
		}
	default:
		e.say(ctx, "Please try again with a valid command.")
	}
}

func (e *Engine) farewell(ctx context.Context, s *Session) {
	e.say(ctx, farewellText)
	s.terminate()
}

// nextInput waits for non-empty input with a bounded per-attempt timeout
// and a bounded retry count, then gives up and lets the caller decide.
func (e *Engine) nextInput(ctx context.Context) (string, bool) {
	cfg := infra.RetryConfig{
		MaxAttempts:  e.opts.ListenRetries,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	var text string
	err := infra.WithRetry(ctx, cfg, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.opts.ListenTimeout)
		defer cancel()

		t, err := e.listener.Listen(attemptCtx)
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}
		if strings.TrimSpace(t) == "" {
			return domain.ErrRecognition
		}
		text = t
		return nil
	})
	if err != nil {
		e.logger.Warn("no usable input", "error", err)
		return "", false
	}
	return text, true
}

func (e *Engine) record(ctx context.Context, s *Session, cmd string, status domain.CommandStatus, response string) {
	entry := domain.NewCommandEntry(cmd, status, e.now().Sub(s.turnStart), response)
	if err := e.log.Append(ctx, entry); err != nil {
		e.logger.Error("recording command", "error", err)
	}
}

func (e *Engine) say(ctx context.Context, text string) {
	if err := e.speaker.Say(ctx, text); err != nil {
		e.logger.Error("speaking", "error", err, "text", text)
	}
}

func greetingFor(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
