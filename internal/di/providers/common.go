package providers

import "time"

const shutdownTimeout = 30 * time.Second
