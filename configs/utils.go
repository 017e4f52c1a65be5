package configs

import (
	"fmt"
	"github.com/goccy/go-json"
	"log"
	"strconv"
	"time"
)

// TxnPrintf logs a debug line prefixed with the tid, gated by ShowDebugInfo.
func TxnPrintf(tid string, format string, a ...interface{}) {
	DPrintf("TXN"+tid+": "+format, a...)
}

func DPrintf(format string, a ...interface{}) {
	if ShowDebugInfo {
		if !LogToFile {
			fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		} else {
			log.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		}
	}
}

func TPrintf(format string, a ...interface{}) {
	if ShowTestInfo {
		if !LogToFile {
			fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		} else {
			log.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		}
	}
}

func JToString(v interface{}) string {
	byt, _ := json.Marshal(v)
	return string(byt)
}

func JPrint(v interface{}) {
	byt, _ := json.Marshal(v)
	fmt.Println(string(byt))
}

func Hash(shard string, key uint64) string {
	return shard + "_" + strconv.FormatUint(key, 10)
}

func Assert(cond bool, msg string) bool {
	if !cond {
		panic("[ASSERT] " + msg)
	}
	return cond
}

func Warn(cond bool, msg string) bool {
	if ShowWarnings && !cond {
		if !LogToFile {
			fmt.Printf("[WARNING] :" + msg + "\n")
		} else {
			log.Printf("[WARNING] :" + msg + "\n")
		}
	}
	return cond
}

func CheckError(err error) {
	if err != nil {
		panic(err.Error())
	}
}
