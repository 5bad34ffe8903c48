package vm

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Keypad is the 16-key input state. It is written by the keyboard adapter
// between ticks and read by the key instructions.
type Keypad [KeyCount]bool

func (k *Keypad) KeyDown(key Key) {
	if int(key) < KeyCount {
		k[key] = true
	}
}

func (k *Keypad) KeyUp(key Key) {
	if int(key) < KeyCount {
		k[key] = false
	}
}

func (k *Keypad) IsPressed(key Key) bool {
	return int(key) < KeyCount && k[key]
}

// FirstPressed returns the lowest numbered key held down.
func (k *Keypad) FirstPressed() (Key, bool) {
	for i, down := range k {
		if down {
			return Key(i), true
		}
	}
	return 0, false
}

func (k *Keypad) Release() {
	*k = Keypad{}
}
