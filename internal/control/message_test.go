package control

import "testing"

func TestParseMessage(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
		arg  string
	}{
		{"STAGE:video3", KindStage, "video3"},
		{"VIDEO:video4", KindVideo, "video4"},
		{"RELOAD", KindReload, ""},
		{"PING", KindIgnore, "PING"},
		{"ACK", KindIgnore, "ACK"},
		{"1", KindSignal, "1"},
		{"2", KindSignal, "2"},
		{"  STAGE:video2\n", KindStage, "video2"},
		{"stage:video2", KindSignal, "stage:video2"}, // verbs are case-sensitive
		{"STAGE:", KindStage, ""},
		{"", KindSignal, ""},
	}

	for _, tc := range cases {
		cmd := ParseMessage(tc.raw)
		if cmd.Kind != tc.kind || cmd.Arg != tc.arg {
			t.Errorf("ParseMessage(%q) = {%v %q}, want {%v %q}", tc.raw, cmd.Kind, cmd.Arg, tc.kind, tc.arg)
		}
	}
}
