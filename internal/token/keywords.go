package token

var keywords = map[string]Kind{
	"var":        KwVar,
	"let":        KwLet,
	"const":      KwConst,
	"function":   KwFunction,
	"return":     KwReturn,
	"if":         KwIf,
	"else":       KwElse,
	"while":      KwWhile,
	"do":         KwDo,
	"for":        KwFor,
	"in":         KwIn,
	"break":      KwBreak,
	"continue":   KwContinue,
	"switch":     KwSwitch,
	"case":       KwCase,
	"default":    KwDefault,
	"new":        KwNew,
	"delete":     KwDelete,
	"typeof":     KwTypeof,
	"void":       KwVoid,
	"instanceof": KwInstanceof,
	"null":       KwNull,
	"undefined":  KwUndefined,
	"true":       KwTrue,
	"false":      KwFalse,
	"this":       KwThis,
	"throw":      KwThrow,
	"try":        KwTry,
	"catch":      KwCatch,
	"finally":    KwFinally,
}

// LookupKeyword maps an identifier to its keyword kind, or Ident.
// "of" is contextual and stays an identifier.
func LookupKeyword(text string) Kind {
	if k, ok := keywords[text]; ok {
		return k
	}
	return Ident
}
