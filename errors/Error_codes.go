package errors

// ERR identifies the kind of an Error. The numeric values are part of the
// package API and must not be reordered.
type ERR int32

const (
	ERR_UNKNOWN          ERR = 0
	ERR_INVALID_ARGUMENT ERR = 1
	ERR_NOT_FOUND        ERR = 2
	ERR_PROCESSING       ERR = 3
	ERR_CONFIGURATION    ERR = 4
	ERR_INVALID_STATE    ERR = 5
	ERR_TX_INVALID       ERR = 6
	ERR_STORAGE_ERROR    ERR = 7
	ERR_ERROR            ERR = 9
)

var ERR_name = map[int32]string{
	0: "UNKNOWN",
	1: "INVALID_ARGUMENT",
	2: "NOT_FOUND",
	3: "PROCESSING",
	4: "CONFIGURATION",
	5: "INVALID_STATE",
	6: "TX_INVALID",
	7: "STORAGE_ERROR",
	9: "ERROR",
}

func (e ERR) String() string {
	if name, ok := ERR_name[int32(e)]; ok {
		return name
	}

	return "UNRECOGNIZED"
}
