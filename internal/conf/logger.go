package conf

import "github.com/backline-audio/engine/internal/logging"

var log = logging.ForService("conf")
