package computer

import (
	"errors"
	"strings"
	"testing"

	"github.com/arqvault/arqvault/arqerr"
)

func TestReadComputerInfo(t *testing.T) {
	raw := `<plist version="1.0">
	<dict>
		<key>userName</key>
		<string>SOMEUSER</string>
		<key>computerName</key>
		<string>SOMECOMPUTER</string>
	</dict>
</plist>`

	ci, err := ReadComputerInfo(strings.NewReader(raw), "someuuid")
	if err != nil {
		t.Fatalf("read computer info: %v", err)
	}
	if ci.UserName != "SOMEUSER" {
		t.Errorf("user name = %q", ci.UserName)
	}
	if ci.ComputerName != "SOMECOMPUTER" {
		t.Errorf("computer name = %q", ci.ComputerName)
	}
	if ci.UUID != "someuuid" {
		t.Errorf("uuid = %q", ci.UUID)
	}
}

func TestReadComputerInfoMissingField(t *testing.T) {
	raw := `<plist version="1.0">
	<dict>
		<key>computerName</key>
		<string>SOMECOMPUTER</string>
	</dict>
</plist>`

	if _, err := ReadComputerInfo(strings.NewReader(raw), "someuuid"); !errors.Is(err, arqerr.ErrParse) {
		t.Errorf("missing field error = %v, want ErrParse", err)
	}
}

func TestReadComputerInfoEmpty(t *testing.T) {
	if _, err := ReadComputerInfo(strings.NewReader(""), "someuuid"); !errors.Is(err, arqerr.ErrParse) {
		t.Errorf("empty input error = %v, want ErrParse", err)
	}
}
