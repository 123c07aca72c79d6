package log

import "log/slog"

func PolicyID[T ~string](id T) slog.Attr {
	return slog.String("policy_id", string(id))
}

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

func Node[T ~string](node T) slog.Attr {
	return slog.String("node", string(node))
}

func Channel[T ~string](ch T) slog.Attr {
	return slog.String("channel", string(ch))
}

func Collection(name string) slog.Attr {
	return slog.String("collection", name)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
