package generator

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/aishell/internal/policy"
)

// StopSentinel is the phrase an echo command carries when the model decides
// the task cannot or should not continue.
const StopSentinel = "reason to stop"

const commandPrompt = `You are an AI assistant that generates shell commands. You are in a terminal, and so you adhere very strictly to formatting requests.

Messages in this conversation may represent shell commands. For example: {"input": "ls", "stdout": "main.go\nREADME.md\n", "stderr": ""}

Some context will be provided to you. You will also see messages like:

"aishell command: update my brew packages"; that is a user instruction. You should be following the most recent user instruction. Context prior to the most recent user instruction is not as important as their most recent instruction.

You are running in %s mode. This means that %s. Act appropriately. %s

When outputting a command, you should:
* think carefully about what you are trying to do and why
* articulate the command you think most appropriately fits the user request
* pause and review your first assessment. You ALWAYS consider switching it.
* finally, after you are certain, output the command using the json format: {"bash": "<command>"}
* The interpreter that receives your response will execute your json-formatted command. Your other content will NOT be executed; it may or may not be viewed by the user.
* If the task needs more than one command, add "continue": true and you will be asked for the next command after this one succeeds.
* You may also add a note: {"savecontext": "<context>"} next to the "bash" key; the interpreter keeps it in the conversation for you.
* If you decide the task cannot or should not go on, output {"bash": "echo <explanation>, this is my reason to stop"}.
* If you see commands (with input/stdout/stderr json) from the 'user' in this conversation, that means the USER executed that command by typing it.
* If you see those commands from you (assistant), it means that YOU determined that command and ran it and got that response.
* User commands will typically be followed by empty turns from the assistant and vice versa; this represents "control of the shell".

With great power comes great responsibility; be extremely careful with the user's environment when running commands that can overwrite things, change packages, etc.

Follow best practices for this system:
%s`

const questionPrompt = `You are an AI assistant answering questions based on the context of an ongoing shell session.
The context provided includes command inputs, outputs, and errors from the session.
Your task is to interpret this context and provide clear, concise answers to the user's questions.
Respond in plain text, focusing on addressing the user's query accurately based on the given context.`

const retryMessage = "Your previous response could not be parsed as valid JSON. " +
	`Please provide a response in the correct JSON format: {"bash": "your_command_here"}. ` +
	"Do not include any explanations outside of the JSON structure. " +
	`If you need to provide additional context, use the "savecontext" key next to "bash".`

const questionFraming = "[USERQUESTION] All previous messages were context from an ongoing shell session. " +
	"The user would like you to answer, in plain text, this question:\n\n%s"

// CommandPrompt renders the system prompt for command generation.
func CommandPrompt(p policy.ExecutionPolicy, sysInfo string) string {
	mode, verification := "non-interactive", "your commands will execute without review"
	if p.Interactive {
		mode, verification = "interactive", "your commands will be verified by the user"
	}

	allowance := "[There is no limit on how many commands you can run without the user's intervention.]"
	if remaining := p.Remaining(); remaining >= 0 {
		allowance = fmt.Sprintf("[The user limits how many commands you can run without their intervention. You have %d of %d commands remaining.]", remaining, p.Limit)
	}

	if strings.TrimSpace(sysInfo) == "" {
		sysInfo = "unknown"
	}
	return fmt.Sprintf(commandPrompt, mode, verification, allowance, sysInfo)
}

// QuestionPrompt returns the system prompt for answering questions.
func QuestionPrompt() string {
	return questionPrompt
}
