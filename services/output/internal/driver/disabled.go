package driver

import (
	"encoding/json"

	"pixelstick-go/types"
)

// Disabled is the no-op driver of an unused or unsupported slot.
type Disabled struct{ id int }

func NewDisabled(id int) *Disabled { return &Disabled{id: id} }

func (d *Disabled) ID() int                        { return d.id }
func (d *Disabled) Type() types.OutputType         { return types.OutputDisabled }
func (d *Disabled) Name() string                   { return types.OutputDisabled.String() }
func (d *Disabled) Begin() error                   { return nil }
func (d *Disabled) SetConfig(json.RawMessage) bool { return true }
func (d *Disabled) GetConfig() json.RawMessage     { return json.RawMessage("{}") }
func (d *Disabled) Render() bool                   { return false }
func (d *Disabled) Buffer() []byte                 { return nil }
func (d *Disabled) Close() error                   { return nil }

func (d *Disabled) GetStatus() types.ChannelStatus {
	return types.ChannelStatus{ID: d.id, Type: types.OutputDisabled, Driver: d.Name()}
}
