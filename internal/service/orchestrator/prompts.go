package orchestrator

// System prompts for the constrained completion calls. Every call pairs a
// prompt with a grammar so the model can only emit the expected JSON shape;
// output that still fails to parse is a hard error.

const routerPrompt = `你是一个记忆助手的意图路由器。根据对话历史和用户最新的话，判断应该调用哪个工具：
- Save：用户在陈述一个需要记住的事实
- Recall：用户在询问之前记过的内容
- Modify：用户想修改某条已有的记忆
- Delete：用户想删除某条已有的记忆
- Confirm：用户在确认或否认之前的操作
- NoOp：闲聊或与记忆无关的内容
只输出JSON。`

const saveExpertPrompt = `你是一个信息提取助手。从用户的话中提取需要记住的核心事实，保留时间、地点、人物等关键细节，并为它生成几个简短的主题标签。只输出JSON。`

const modifyExpertPrompt = `你是一个文本修改助手。根据用户的修改要求改写原始记忆内容，输出修改后的完整文本。不要添加原文和修改要求之外的信息。只输出JSON。`

const pendingClassifierPrompt = `我们正在等待用户确认一个修改或删除记忆的操作。判断用户的回复属于哪一类：
- Affirm：同意执行
- Deny：拒绝或取消
- ProvideInfo：补充了新的修改信息
- Unrelated：与当前操作无关
如果用户补充了新信息，把它原样放入 new_information，否则为 null。只输出JSON。`

const jsonStringRules = `
string ::= "\"" char* "\""
char ::= [^"\\] | "\\" ["\\/bfnrt]
ws ::= [ \t\n\r]*`

const routerGrammar = `root ::= "{" ws "\"tool_to_call\"" ws ":" ws tool ws "}"
tool ::= "\"Save\"" | "\"Recall\"" | "\"Modify\"" | "\"Delete\"" | "\"Confirm\"" | "\"NoOp\""
ws ::= [ \t\n\r]*`

const extractionGrammar = `root ::= "{" ws "\"fact\"" ws ":" ws string ws "," ws "\"metadata\"" ws ":" ws "{" ws "\"topics\"" ws ":" ws topics ws "}" ws "}"
topics ::= "[" ws "]" | "[" ws string (ws "," ws string)* ws "]"` + jsonStringRules

const rewriteGrammar = `root ::= "{" ws "\"modified_text\"" ws ":" ws string ws "}"` + jsonStringRules

const pendingGrammar = `root ::= "{" ws "\"decision\"" ws ":" ws decision ws "," ws "\"new_information\"" ws ":" ws info ws "}"
decision ::= "\"Affirm\"" | "\"Deny\"" | "\"ProvideInfo\"" | "\"Unrelated\""
info ::= string | "null"` + jsonStringRules
