// Package computer decodes the computerinfo descriptor stored at the root
// of each computer's backup set, used to tell backup sets apart when
// browsing a storage account.
package computer

import (
	"fmt"
	"io"

	"howett.net/plist"

	"github.com/arqvault/arqvault/arqerr"
)

// ComputerInfo identifies one backed-up computer.
type ComputerInfo struct {
	UserName     string `plist:"userName"`
	ComputerName string `plist:"computerName"`

	// UUID is not part of the property list; it is the directory name the
	// caller read the file from.
	UUID string
}

// ReadComputerInfo decodes a computerinfo stream and records the
// caller-supplied computer UUID.
func ReadComputerInfo(r io.Reader, uuid string) (*ComputerInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read computer info: %w", err)
	}
	var ci ComputerInfo
	if _, err := plist.Unmarshal(data, &ci); err != nil {
		return nil, fmt.Errorf("%w: computer info plist: %v", arqerr.ErrParse, err)
	}
	if ci.UserName == "" || ci.ComputerName == "" {
		return nil, fmt.Errorf("%w: computer info missing userName or computerName", arqerr.ErrParse)
	}
	ci.UUID = uuid
	return &ci, nil
}
