package codecheck

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var pythonDef = regexp.MustCompile(`def\s+\w+\s*\(`)

// lint runs cheap marker checks for the selected language before the oracle is asked.
func lint(code, language string) []string {
	var errs []string
	has := func(s string) bool { return strings.Contains(code, s) }
	def := pythonDef.MatchString(code)

	switch strings.ToLower(language) {
	case "javascript":
		if has("printf(") || has("#include") {
			errs = append(errs, "This appears to be C/C++ code, not JavaScript. Use console.log() instead of printf()")
		}
		if has("System.out.print") || has("public class") {
			errs = append(errs, "This appears to be Java code, not JavaScript. Use console.log() instead of System.out.println()")
		}
		if def {
			errs = append(errs, "This appears to be Python code, not JavaScript. Use function keyword instead of def")
		}
	case "python":
		if has("console.log") || has("function ") {
			errs = append(errs, "This appears to be JavaScript code, not Python. Use print() instead of console.log()")
		}
		if has("printf(") || has("#include") {
			errs = append(errs, "This appears to be C/C++ code, not Python. Use print() instead of printf()")
		}
		if has("System.out.print") || has("public class") {
			errs = append(errs, "This appears to be Java code, not Python. Use print() instead of System.out.println()")
		}
	case "java":
		if has("console.log") || has("function ") {
			errs = append(errs, "This appears to be JavaScript code, not Java. Use System.out.println() instead of console.log()")
		}
		if def {
			errs = append(errs, "This appears to be Python code, not Java. Use method declarations instead of def")
		}
		if !has("class ") {
			errs = append(errs, "Java code must contain at least one class declaration")
		}
	case "cpp", "c++", "c":
		if has("console.log") || has("function ") {
			errs = append(errs, fmt.Sprintf("This appears to be JavaScript code, not %s", language))
		}
		if has("System.out.print") {
			errs = append(errs, fmt.Sprintf("This appears to be Java code, not %s", language))
		}
		if def {
			errs = append(errs, fmt.Sprintf("This appears to be Python code, not %s", language))
		}
	case "csharp":
		if has("console.log") || has("function ") {
			errs = append(errs, "This appears to be JavaScript code, not C#. Use Console.WriteLine() instead of console.log()")
		}
		if has("printf(") {
			errs = append(errs, "This appears to be C/C++ code, not C#. Use Console.WriteLine() instead of printf()")
		}
		if def {
			errs = append(errs, "This appears to be Python code, not C#. Use method declarations instead of def")
		}
	default:
		if has("console.log") {
			errs = append(errs, fmt.Sprintf("console.log() is JavaScript syntax, not %s", language))
		}
		if has("printf(") {
			errs = append(errs, fmt.Sprintf("printf() is C/C++ syntax, not %s", language))
		}
	}
	return errs
}

// detectLanguages returns every language whose markers appear in code.
func detectLanguages(code string) []string {
	var found []string
	has := func(s string) bool { return strings.Contains(code, s) }
	if has("console.log") || has("function ") {
		found = append(found, "javascript")
	}
	if pythonDef.MatchString(code) || (has("print(") && !has("printf")) {
		found = append(found, "python")
	}
	if has("System.out.print") || has("public class") || has("public static void main") {
		found = append(found, "java")
	}
	if has("printf(") || has("#include") || has("int main(") {
		found = append(found, "c")
		if has("cout") || has("using namespace") {
			found = append(found, "cpp")
		}
	}
	if has("Console.WriteLine") || has("using System") {
		found = append(found, "csharp")
	}
	return found
}

// languageMismatch reports the detected languages when none of them is the selected one.
func languageMismatch(code, language string) ([]string, bool) {
	found := detectLanguages(code)
	lang := strings.ToLower(language)
	if lang == "c++" {
		lang = "cpp"
	}
	if len(found) == 0 || slices.Contains(found, lang) {
		return nil, false
	}
	return found, true
}
