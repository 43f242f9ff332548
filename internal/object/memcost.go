package object

const (
	memStringHead   int64 = 24
	memFunctionHead int64 = 64
)

func CostString(n int) int64 {
	if n < 0 {
		return memStringHead
	}
	return memStringHead + int64(n)
}

func CostFunction() int64 {
	return memFunctionHead
}
