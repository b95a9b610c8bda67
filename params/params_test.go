package params

import "testing"

func TestBandwidthKHzMapping(t *testing.T) {
	cases := map[int]float64{0: 4.5, 1: 5, 2: 9, 3: 10, 4: 18, 5: 20, 6: 0, -1: 0}
	for idx, want := range cases {
		if got := BandwidthKHz(idx); got != want {
			t.Errorf("BandwidthKHz(%d) = %v, want %v", idx, got, want)
		}
	}
}

func TestPushMediaObjectExactlyOnce(t *testing.T) {
	p := New()
	obj := MediaObject{TransportID: 7, Version: 3}
	if !p.PushMediaObject("slideshow", obj) {
		t.Fatalf("first push of a new version should be accepted")
	}
	if p.PushMediaObject("slideshow", obj) {
		t.Fatalf("repeat push of the same version should be suppressed")
	}
	obj.Version = 4
	if !p.PushMediaObject("slideshow", obj) {
		t.Fatalf("push of a new version should be accepted")
	}
}

func TestStatusRoundTrip(t *testing.T) {
	p := New()
	p.UpdateStatus(func(s *ReceiveStatus) { s.SLAudio = StatusCRCError })
	if got := p.Status().SLAudio; got != StatusCRCError {
		t.Fatalf("got %v, want StatusCRCError", got)
	}
	if got := StatusNotPresent.Int(); got != -1 {
		t.Fatalf("StatusNotPresent.Int() = %d, want -1", got)
	}
}

func TestServicesCopyIsolation(t *testing.T) {
	p := New()
	p.SetServices([]Service{{ID: 1, Label: "a"}})
	s := p.Services()
	s[0].Label = "mutated"
	if p.Services()[0].Label != "a" {
		t.Fatalf("Services() did not return an isolated copy")
	}
}
