package game

var taskPool = []Task{
	{
		Type:        "wiring",
		Name:        "Connect Wires",
		Description: "Connect matching colored wires to bypass security",
		Location:    "server-room",
	},
	{
		Type:        "hacking",
		Name:        "Bypass Firewall",
		Description: "Find and enter the correct sequence to breach the firewall",
		Location:    "security",
	},
	{
		Type:        "decryption",
		Name:        "Decrypt Security Code",
		Description: "Decode the security pattern to gain access",
		Location:    "office",
	},
	{
		Type:        "memorization",
		Name:        "Memory Circuit",
		Description: "Memorize and repeat the sequence to unlock the circuit",
		Location:    "lab",
	},
	{
		Type:        "lockpicking",
		Name:        "Pick the Lock",
		Description: "Find the correct tumbler positions to open the lock",
		Location:    "vault",
	},
}

// sampleTasks draws n templates without replacement.
func sampleTasks(rnd randomizer, n int) []Task {
	pool := append([]Task(nil), taskPool...)
	rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n:n]
}

func freshTasks(rnd randomizer) TaskState {
	return TaskState{Total: TaskCount, List: sampleTasks(rnd, TaskCount)}
}
