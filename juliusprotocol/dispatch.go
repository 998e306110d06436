package juliusprotocol

// Dispatch turns a parsed record into notifications.
//
// The first notification is always a RawData carrying tree unchanged. It is
// followed by exactly one notification per top-level key, in tree order. A
// key outside the protocol vocabulary yields an Unrecognized notification
// carrying its raw value. A key repeated at the top level is decoded from
// its first occurrence. Dispatch never fails: attributes that are missing
// or malformed leave zero text or NaN numbers in the payload.
func Dispatch(tree *Map) []Notification {
	keys := tree.Keys()
	notes := make([]Notification, 0, len(keys)+1)
	notes = append(notes, RawData{Tree: tree})

	for _, key := range keys {
		value, _ := tree.Get(key)
		notes = append(notes, dispatchTag(key, value))
	}
	return notes
}

func dispatchTag(tag string, value Value) Notification {
	switch kind := Kind(tag); kind {
	case KindStartProcess, KindEndProcess, KindStartRecognition,
		KindEndRecognition, KindRecognitionFailed:
		return Signal{Tag: kind}
	case KindEngineInfo:
		return decodeEngineInfo(value)
	case KindGMM:
		return decodeGMM(value)
	case KindGrammarInfo, KindGraphOut, KindRecognitionProcess:
		return Passthrough{Tag: kind, Value: value}
	case KindGrammar:
		return decodeGrammar(value)
	case KindInput:
		return decodeInput(value)
	case KindInputParam:
		return decodeInputParam(value)
	case KindRecognitionOutput:
		return decodeRecognitionOutput(value)
	case KindRejected:
		return decodeRejected(value)
	case KindSystemInfo:
		return decodeSystemInfo(value)
	default:
		return Unrecognized{Tag: tag, Value: value}
	}
}

// Decode parses one record and dispatches it. Malformed markup returns a
// *DecodeError and no notifications.
func Decode(record string) ([]Notification, error) {
	tree, err := ParseTree(record)
	if err != nil {
		return nil, err
	}
	return Dispatch(tree), nil
}

// IsKnownTag reports whether tag belongs to the protocol vocabulary.
func IsKnownTag(tag string) bool {
	_, unrecognized := dispatchTag(tag, nil).(Unrecognized)
	return !unrecognized
}
