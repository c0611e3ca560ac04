package event

import "testing"

func TestBusDeliversNextStep(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e SceneBegan) { got = append(got, e.Name) })

	Emit(b, SceneBegan{Name: "title"})
	b.DispatchAll()
	if len(got) != 0 {
		t.Fatal("event delivered in the step it was emitted")
	}
	if b.Pending() != 1 {
		t.Fatalf("pending = %d", b.Pending())
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 1 || got[0] != "title" {
		t.Fatalf("got = %v", got)
	}

	// Delivered once only.
	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 1 {
		t.Fatalf("event delivered twice: %v", got)
	}
}

func TestBusRoutesByType(t *testing.T) {
	b := NewBus()
	var began, ended int
	Subscribe(b, func(SceneBegan) { began++ })
	Subscribe(b, func(SceneEnded) { ended++ })

	Emit(b, SceneEnded{Name: "a"})
	Emit(b, SceneEnded{Name: "b"})
	b.SwapBuffers()
	b.DispatchAll()

	if began != 0 || ended != 2 {
		t.Fatalf("began=%d ended=%d", began, ended)
	}
}

func TestBusKeepsEmissionOrderAcrossTypes(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e SceneBegan) { got = append(got, "began "+e.Name) })
	Subscribe(b, func(e ScenePaused) { got = append(got, "paused "+e.Name) })
	Subscribe(b, func(e SceneEnded) { got = append(got, "ended "+e.Name) })

	Emit(b, ScenePaused{Name: "a"})
	Emit(b, SceneBegan{Name: "b"})
	Emit(b, SceneEnded{Name: "b"})
	Emit(b, SceneBegan{Name: "c"})
	b.SwapBuffers()
	b.DispatchAll()

	want := []string{"paused a", "began b", "ended b", "began c"}
	if len(got) != len(want) {
		t.Fatalf("got = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got = %v, want %v", got, want)
		}
	}
}
