package driver

import "pixelstick-go/errcode"

func errPortMissing(kind string) error {
	return &errcode.E{C: errcode.PortMissing, Op: "build", Msg: kind}
}
