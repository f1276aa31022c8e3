package input

import "testing"

func TestControllerSerialRead(t *testing.T) {
	c := New()

	c.SetButton(0, 0, true) // A
	c.SetButton(0, 3, true) // Start

	c.Write(1) // strobe high
	c.Write(0) // strobe low, latches

	if v := c.Read1(); v != 1 {
		t.Errorf("Expected A=1, got %d", v)
	}
	if v := c.Read1(); v != 0 {
		t.Errorf("Expected B=0, got %d", v)
	}
	if v := c.Read1(); v != 0 {
		t.Errorf("Expected Select=0, got %d", v)
	}
	if v := c.Read1(); v != 1 {
		t.Errorf("Expected Start=1, got %d", v)
	}
}

func TestControllerReadPastEighthBitReturnsOne(t *testing.T) {
	c := New()
	c.Write(1)
	c.Write(0)

	for i := 0; i < 8; i++ {
		c.Read1()
	}
	if v := c.Read1(); v != 1 {
		t.Errorf("Expected open-bus 1 after 8 reads, got %d", v)
	}
}

func TestControllerLatchFreezesOnFallingEdge(t *testing.T) {
	c := New()

	c.SetButton(0, 0, true) // A pressed
	c.Write(1)
	c.Write(0) // latch: A=1 frozen in

	// Release A after strobing low; the already-latched read should be
	// unaffected by the live state change.
	c.SetButton(0, 0, false)

	if v := c.Read1(); v != 1 {
		t.Errorf("Expected latched A=1 despite later release, got %d", v)
	}
}

func TestControllerStrobeHighAlwaysReadsLive(t *testing.T) {
	c := New()
	c.Write(1) // strobe held high

	c.SetButton(0, 0, true)
	if v := c.Read1(); v != 1 {
		t.Errorf("Expected live A=1 while strobed, got %d", v)
	}
	c.SetButton(0, 0, false)
	if v := c.Read1(); v != 0 {
		t.Errorf("Expected live A=0 after release while strobed, got %d", v)
	}
}

func TestControllerTwoPortsIndependent(t *testing.T) {
	c := New()

	c.SetButton(0, 0, true) // port 1 A
	c.SetButton(1, 1, true) // port 2 B

	c.Write(1)
	c.Write(0)

	if v := c.Read1(); v != 1 {
		t.Errorf("Expected port 1 A=1, got %d", v)
	}
	if v := c.Read2(); v != 0 {
		t.Errorf("Expected port 2 A=0, got %d", v)
	}
	if v := c.Read2(); v != 1 {
		t.Errorf("Expected port 2 B=1, got %d", v)
	}
}
