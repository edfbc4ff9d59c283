package pyscope

// builtinNames is dir(builtins) for CPython 3.13, minus the interactive-only "_".
var builtinNames = map[string]struct{}{
	"ArithmeticError": {}, "AssertionError": {}, "AttributeError": {}, "BaseException": {},
	"BaseExceptionGroup": {}, "BlockingIOError": {}, "BrokenPipeError": {}, "BufferError": {},
	"BytesWarning": {}, "ChildProcessError": {}, "ConnectionAbortedError": {}, "ConnectionError": {},
	"ConnectionRefusedError": {}, "ConnectionResetError": {}, "DeprecationWarning": {}, "EOFError": {},
	"Ellipsis": {}, "EncodingWarning": {}, "EnvironmentError": {}, "Exception": {},
	"ExceptionGroup": {}, "False": {}, "FileExistsError": {}, "FileNotFoundError": {},
	"FloatingPointError": {}, "FutureWarning": {}, "GeneratorExit": {}, "IOError": {},
	"ImportError": {}, "ImportWarning": {}, "IndentationError": {}, "IndexError": {},
	"InterruptedError": {}, "IsADirectoryError": {}, "KeyError": {}, "KeyboardInterrupt": {},
	"LookupError": {}, "MemoryError": {}, "ModuleNotFoundError": {}, "NameError": {},
	"None": {}, "NotADirectoryError": {}, "NotImplemented": {}, "NotImplementedError": {},
	"OSError": {}, "OverflowError": {}, "PendingDeprecationWarning": {}, "PermissionError": {},
	"ProcessLookupError": {}, "PythonFinalizationError": {}, "RecursionError": {}, "ReferenceError": {},
	"ResourceWarning": {}, "RuntimeError": {}, "RuntimeWarning": {}, "StopAsyncIteration": {},
	"StopIteration": {}, "SyntaxError": {}, "SyntaxWarning": {}, "SystemError": {},
	"SystemExit": {}, "TabError": {}, "TimeoutError": {}, "True": {},
	"TypeError": {}, "UnboundLocalError": {}, "UnicodeDecodeError": {}, "UnicodeEncodeError": {},
	"UnicodeError": {}, "UnicodeTranslateError": {}, "UnicodeWarning": {}, "UserWarning": {},
	"ValueError": {}, "Warning": {}, "ZeroDivisionError": {},
	"_IncompleteInputError": {},
	"__build_class__": {}, "__debug__": {}, "__doc__": {}, "__import__": {},
	"__loader__": {}, "__name__": {}, "__package__": {}, "__spec__": {},
	"abs": {}, "aiter": {}, "all": {}, "anext": {}, "any": {}, "ascii": {}, "bin": {}, "bool": {},
	"breakpoint": {}, "bytearray": {}, "bytes": {}, "callable": {}, "chr": {}, "classmethod": {},
	"compile": {}, "complex": {}, "copyright": {}, "credits": {}, "delattr": {}, "dict": {},
	"dir": {}, "divmod": {}, "enumerate": {}, "eval": {}, "exec": {}, "exit": {}, "filter": {},
	"float": {}, "format": {}, "frozenset": {}, "getattr": {}, "globals": {}, "hasattr": {},
	"hash": {}, "help": {}, "hex": {}, "id": {}, "input": {}, "int": {}, "isinstance": {},
	"issubclass": {}, "iter": {}, "len": {}, "license": {}, "list": {}, "locals": {}, "map": {},
	"max": {}, "memoryview": {}, "min": {}, "next": {}, "object": {}, "oct": {}, "open": {},
	"ord": {}, "pow": {}, "print": {}, "property": {}, "quit": {}, "range": {}, "repr": {},
	"reversed": {}, "round": {}, "set": {}, "setattr": {}, "slice": {}, "sorted": {},
	"staticmethod": {}, "str": {}, "sum": {}, "super": {}, "tuple": {}, "type": {}, "vars": {},
	"zip": {},
}

// magicGlobals are module attributes the checker treats as always defined
// even though they are not builtins.
var magicGlobals = map[string]struct{}{
	"__file__":        {},
	"__builtins__":    {},
	"__annotations__": {},
	"WindowsError":    {},
}

// classMagic are implicitly defined inside class bodies.
var classMagic = []string{"__module__", "__qualname__"}

// IsBuiltin reports whether name is a Python builtin.
func IsBuiltin(name string) bool {
	_, ok := builtinNames[name]

	return ok
}

// IsMagicGlobal reports whether name is one of the implicit module globals.
func IsMagicGlobal(name string) bool {
	_, ok := magicGlobals[name]

	return ok
}

// IsImplicit reports whether name is defined without any binding in the
// module: a builtin or a magic global.
func IsImplicit(name string) bool {
	return IsBuiltin(name) || IsMagicGlobal(name)
}
