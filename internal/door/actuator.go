package door

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Actuator drives the physical lock relay.
//
// Implementations must be safe for concurrent use; the Controller
// serialises calls but manual overrides may arrive from other paths.
type Actuator interface {
	// Unlock energises the relay, releasing the strike.
	Unlock(ctx context.Context) error

	// Lock de-energises the relay, engaging the strike.
	Lock(ctx context.Context) error
}

// gpio sysfs paths.
const (
	gpioExportPath = "/sys/class/gpio/export"
	gpioValuePath  = "/sys/class/gpio/gpio%d/value"
	gpioDirPath    = "/sys/class/gpio/gpio%d/direction"
)

// GPIOActuator drives a relay through the Linux sysfs GPIO interface.
//
// The relay is wired active-high: writing 1 releases the strike.
type GPIOActuator struct {
	pin int
	mu  sync.Mutex
}

// NewGPIOActuator exports and configures the given pin as an output.
// The pin starts in the locked (low) state.
func NewGPIOActuator(pin int) (*GPIOActuator, error) {
	// Export is idempotent in effect: EBUSY means already exported.
	if err := os.WriteFile(gpioExportPath, []byte(strconv.Itoa(pin)), 0200); err != nil && !os.IsExist(err) {
		if _, statErr := os.Stat(fmt.Sprintf(gpioValuePath, pin)); statErr != nil {
			return nil, fmt.Errorf("exporting gpio %d: %w", pin, err)
		}
	}

	if err := os.WriteFile(fmt.Sprintf(gpioDirPath, pin), []byte("out"), 0200); err != nil {
		return nil, fmt.Errorf("configuring gpio %d direction: %w", pin, err)
	}

	a := &GPIOActuator{pin: pin}
	if err := a.write(0); err != nil {
		return nil, fmt.Errorf("initialising gpio %d low: %w", pin, err)
	}
	return a, nil
}

// Unlock drives the pin high.
func (a *GPIOActuator) Unlock(_ context.Context) error {
	if err := a.write(1); err != nil {
		return fmt.Errorf("%w: %w", ErrActuatorFault, err)
	}
	return nil
}

// Lock drives the pin low.
func (a *GPIOActuator) Lock(_ context.Context) error {
	if err := a.write(0); err != nil {
		return fmt.Errorf("%w: %w", ErrActuatorFault, err)
	}
	return nil
}

func (a *GPIOActuator) write(value int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return os.WriteFile(fmt.Sprintf(gpioValuePath, a.pin), []byte(strconv.Itoa(value)), 0200)
}

// SimActuator is a no-op actuator for simulation mode and tests.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type SimActuator struct {
	mu      sync.Mutex
	unlocks int
	locks   int

	// FailWith, when set, is returned by both operations. Tests use it
	// to exercise actuator fault handling.
	FailWith error
}

// NewSimActuator creates a simulated actuator.
func NewSimActuator() *SimActuator {
	return &SimActuator{}
}

// Unlock records the call.
func (a *SimActuator) Unlock(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailWith != nil {
		return a.FailWith
	}
	a.unlocks++
	return nil
}

// Lock records the call.
func (a *SimActuator) Lock(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailWith != nil {
		return a.FailWith
	}
	a.locks++
	return nil
}

// Counts returns the number of unlock and lock calls so far.
func (a *SimActuator) Counts() (unlocks, locks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unlocks, a.locks
}
