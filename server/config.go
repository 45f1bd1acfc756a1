package server

import (
	"time"
)

type Conf struct {
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

func ServerConfigs() *Conf {
	return &Conf{
		TimeoutRead: time.Second * 30,
		// No write timeout: streamed completions stay open for as long
		// as the agent run takes. Stalls are bounded per frame instead.
		TimeoutWrite: 0,
		TimeoutIdle:  time.Second * 30,
	}
}
