package engine

import (
	"errors"
	"testing"

	"taperig"
)

func newRouterRig(t *testing.T) (*Console, *Broker) {
	t.Helper()
	cfg := testConfig()
	broker := NewBroker(len(cfg.Pads))
	c, err := NewConsole(cfg, broker)
	if err != nil {
		t.Fatalf("NewConsole failed: %v", err)
	}
	return c, broker
}

func drainCommands(broker *Broker) []Command {
	var cmds []Command
	for {
		select {
		case cmd := <-broker.ToEngine:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

func padMap() taperig.NoteMap {
	return taperig.NoteMap{
		60: {Pad: 0, Action: "play"},
		61: {Pad: 1, Action: "record"},
		62: {Pad: 1, Action: "stop"},
	}
}

func TestNoteOnTriggersBoundAction(t *testing.T) {
	c, broker := newRouterRig(t)
	if err := c.Bind("padKontrol", padMap()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := c.HandleNote("padKontrol", 60, true); err != nil {
		t.Fatalf("HandleNote failed: %v", err)
	}
	cmds := drainCommands(broker)
	if len(cmds) != 1 || cmds[0].Op != OpPlay || cmds[0].Pad != 0 {
		t.Errorf("expected one play command for pad 0, got %v", cmds)
	}
}

func TestHeldNoteTriggersOnce(t *testing.T) {
	c, broker := newRouterRig(t)
	if err := c.Bind("padKontrol", padMap()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	c.HandleNote("padKontrol", 61, true)
	c.HandleNote("padKontrol", 61, true) // retrigger without release
	if cmds := drainCommands(broker); len(cmds) != 1 {
		t.Fatalf("held note retriggered: %v", cmds)
	}
	c.HandleNote("padKontrol", 61, false)
	c.HandleNote("padKontrol", 61, true)
	if cmds := drainCommands(broker); len(cmds) != 1 {
		t.Errorf("released note did not rearm: %v", cmds)
	}
}

func TestNoteOffIsNotATrigger(t *testing.T) {
	c, broker := newRouterRig(t)
	if err := c.Bind("padKontrol", padMap()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	c.HandleNote("padKontrol", 62, false)
	if cmds := drainCommands(broker); len(cmds) != 0 {
		t.Errorf("note off produced commands: %v", cmds)
	}
}

func TestUnmappedNoteAlerts(t *testing.T) {
	c, broker := newRouterRig(t)
	if err := c.Bind("padKontrol", padMap()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	c.HandleNote("padKontrol", 99, true)
	if cmds := drainCommands(broker); len(cmds) != 0 {
		t.Errorf("unmapped note produced commands: %v", cmds)
	}
	alerts := drainAlerts(broker)
	if len(alerts) != 1 || alerts[0].Kind != AlertUnmappedNote || alerts[0].Note != 99 {
		t.Errorf("expected unmapped note alert, got %v", alerts)
	}
}

func TestUnboundDeviceAlerts(t *testing.T) {
	c, broker := newRouterRig(t)
	c.HandleNote("mysteryBox", 60, true)
	if cmds := drainCommands(broker); len(cmds) != 0 {
		t.Errorf("unbound device produced commands: %v", cmds)
	}
	alerts := drainAlerts(broker)
	if len(alerts) != 1 || alerts[0].Kind != AlertUnmappedDevice {
		t.Errorf("expected unbound device alert, got %v", alerts)
	}
}

func TestRebindReplacesMap(t *testing.T) {
	c, broker := newRouterRig(t)
	if err := c.Bind("padKontrol", padMap()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	c.HandleNote("padKontrol", 60, true) // held under the old map
	drainCommands(broker)
	if err := c.Bind("padKontrol", taperig.NoteMap{60: {Pad: 2, Action: "once"}}); err != nil {
		t.Fatalf("rebind failed: %v", err)
	}
	// rebinding cleared the held latch, so the note fires under the new map
	c.HandleNote("padKontrol", 60, true)
	cmds := drainCommands(broker)
	if len(cmds) != 1 || cmds[0].Op != OpOnce || cmds[0].Pad != 2 {
		t.Errorf("expected once command for pad 2, got %v", cmds)
	}
	// the old binding for note 61 is gone
	c.HandleNote("padKontrol", 61, true)
	if cmds := drainCommands(broker); len(cmds) != 0 {
		t.Errorf("stale binding survived rebind: %v", cmds)
	}
}

func TestUnbind(t *testing.T) {
	c, broker := newRouterRig(t)
	if err := c.Bind("padKontrol", padMap()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	c.Unbind("padKontrol")
	c.HandleNote("padKontrol", 60, true)
	if cmds := drainCommands(broker); len(cmds) != 0 {
		t.Errorf("unbound device produced commands: %v", cmds)
	}
	if alerts := drainAlerts(broker); len(alerts) != 1 || alerts[0].Kind != AlertUnmappedDevice {
		t.Errorf("expected unbound device alert, got %v", alerts)
	}
}

func TestBindRejectsBadBindings(t *testing.T) {
	c, _ := newRouterRig(t)
	err := c.Bind("dev", taperig.NoteMap{60: {Pad: 42, Action: "play"}})
	if !errors.Is(err, taperig.ErrInvalidPadIndex) {
		t.Errorf("expected ErrInvalidPadIndex, got %v", err)
	}
	if err := c.Bind("dev", taperig.NoteMap{60: {Pad: 0, Action: "detonate"}}); err == nil {
		t.Errorf("expected error for unknown action")
	}
}

func TestRouterResolvesPadDefaults(t *testing.T) {
	cfg := testConfig()
	sat := float32(0.7)
	cfg.Pads[0].Wear.Saturation = &sat
	broker := NewBroker(len(cfg.Pads))
	c, err := NewConsole(cfg, broker)
	if err != nil {
		t.Fatalf("NewConsole failed: %v", err)
	}
	if err := c.Bind("padKontrol", padMap()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	c.HandleNote("padKontrol", 60, true)
	cmds := drainCommands(broker)
	if len(cmds) != 1 || cmds[0].Wear.Saturation != 0.7 {
		t.Errorf("pad wear default not resolved into command: %v", cmds)
	}
}
