package db

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// normalizeQueryValueWithDBType normalizes driver-returned values for UI/JSON
// transport using the column's database type name when the driver reports one.
// 当前主要处理 []byte：BIT 列按大端整数解读；其余可读文本转为 string，
// 否则转为十六进制字符串，避免前端出现“空白值”。
func normalizeQueryValueWithDBType(v interface{}, dbType string) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}

	t := strings.ToUpper(strings.TrimSpace(dbType))
	if strings.HasPrefix(t, "BIT") {
		return bitBytesToValue(b)
	}

	// Some drivers drop the type name; an all-zero payload is a BIT column
	// far more often than a binary blob of NULs.
	if len(b) > 0 && len(b) <= 8 && allZeroBytes(b) {
		return bitBytesToValue(b)
	}

	return bytesToReadableString(b)
}

// normalizeQueryValue is the type-less fallback.
func normalizeQueryValue(v interface{}) interface{} {
	return normalizeQueryValueWithDBType(v, "")
}

func bitBytesToValue(b []byte) interface{} {
	if len(b) == 0 {
		return int64(0)
	}
	if len(b) > 8 {
		return "0x" + hex.EncodeToString(b)
	}

	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	if u > math.MaxInt64 {
		return strconv.FormatUint(u, 10)
	}
	return int64(u)
}

func allZeroBytes(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func bytesToReadableString(b []byte) interface{} {
	if b == nil {
		return nil
	}
	if len(b) == 0 {
		return ""
	}

	if utf8.Valid(b) {
		s := string(b)
		if isMostlyPrintable(s) {
			return s
		}
	}

	return "0x" + hex.EncodeToString(b)
}

func isMostlyPrintable(s string) bool {
	if s == "" {
		return true
	}

	total := 0
	printable := 0
	for _, r := range s {
		total++
		switch r {
		case '\n', '\r', '\t':
			printable++
			continue
		default:
		}
		if unicode.IsPrint(r) {
			printable++
		}
	}

	// 允许少量不可见字符，避免把正常文本误判为二进制。
	return printable*100 >= total*90
}
