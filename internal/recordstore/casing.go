package recordstore

// 字段名大小写转换：内部统一 camelCase，外部存储统一 snake_case
// 对本模块实际使用的字段名集合必须满足往返恒等：
//   CamelKeys(SnakeKeys(x)) == x
// 转换只处理 ASCII 字母和数字的字段名（与存储端约定一致）

// snakeKey camelCase -> snake_case（flatIds -> flat_ids）
func snakeKey(key string) string {
	out := make([]byte, 0, len(key)+4)
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c >= 'A' && c <= 'Z' {
			out = append(out, '_', c+('a'-'A'))
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// camelKey snake_case -> camelCase（flat_ids -> flatIds）
func camelKey(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' && i+1 < len(key) {
			next := key[i+1]
			if next >= 'a' && next <= 'z' {
				out = append(out, next-('a'-'A'))
				i++
				continue
			}
		}
		out = append(out, c)
	}
	return string(out)
}

// SnakeKeys 递归转换记录的所有字段名为 snake_case（存储边界出站）
func SnakeKeys(value any) any {
	return mapKeys(value, snakeKey)
}

// CamelKeys 递归转换记录的所有字段名为 camelCase（存储边界入站）
func CamelKeys(value any) any {
	return mapKeys(value, camelKey)
}

func mapKeys(value any, convert func(string) string) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[convert(key)] = mapKeys(val, convert)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = mapKeys(val, convert)
		}
		return out
	default:
		return value
	}
}
